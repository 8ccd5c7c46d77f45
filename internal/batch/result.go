package batch

import (
	"encoding/json"
	"fmt"

	"statmatch/internal/analysis"
)

// Verification statuses reported on outbound results.
const (
	StatusVerified = "verified"
	StatusPartial  = "partial"
)

// KeyDifferences carries the absolute statistic deltas between a candidate
// and the root it was scored against.
type KeyDifferences struct {
	MeanDiff   float64 `json:"meanDiff"`
	MedianDiff float64 `json:"medianDiff"`
	StdDevDiff float64 `json:"stdDevDiff"`
}

// Insight explains why a candidate was selected as closest or farthest.
type Insight struct {
	FieldName      string         `json:"fieldName"`
	FieldType      string         `json:"fieldType"`
	Interpretation string         `json:"interpretation"`
	ComparedTo     string         `json:"comparedTo"`
	KeyDifferences KeyDifferences `json:"keyDifferences"`
}

// Result is the outbound document published after a batch is processed.
type Result struct {
	ExperimentID         string   `json:"experimentId"`
	CandidateCount       int      `json:"candidateCount"`
	ClosestFingerprint   *string  `json:"closestFingerprint"`
	ClosestDistance      *float64 `json:"closestDistance"`
	FarthestFingerprint  *string  `json:"farthestFingerprint"`
	FarthestDistance     *float64 `json:"farthestDistance"`
	ClosestInsights      *Insight `json:"closestInsights,omitempty"`
	FarthestInsights     *Insight `json:"farthestInsights,omitempty"`
	VerifiedFingerprints int      `json:"verifiedFingerprints"`
	Status               string   `json:"status"`
}

// NewResult assembles the outbound result from a ranking and the store
// verification count. Status is "verified" when at least one candidate id
// was found in the store, "partial" otherwise.
func NewResult(experimentID string, candidateCount int, ranking analysis.Ranking, verified int) *Result {
	result := &Result{
		ExperimentID:         experimentID,
		CandidateCount:       candidateCount,
		VerifiedFingerprints: verified,
		Status:               StatusPartial,
	}
	if verified > 0 {
		result.Status = StatusVerified
	}

	if pick := ranking.Closest; pick != nil {
		result.ClosestFingerprint = &pick.CandidateID
		result.ClosestDistance = &pick.Distance
		result.ClosestInsights = insightFromPick(pick)
	}
	if pick := ranking.Farthest; pick != nil {
		result.FarthestFingerprint = &pick.CandidateID
		result.FarthestDistance = &pick.Distance
		result.FarthestInsights = insightFromPick(pick)
	}
	return result
}

func insightFromPick(pick *analysis.Pick) *Insight {
	return &Insight{
		FieldName:      pick.Insight.FieldName,
		FieldType:      pick.Insight.FieldType,
		Interpretation: pick.Insight.Interpretation,
		ComparedTo:     pick.Insight.ComparedTo,
		KeyDifferences: KeyDifferences{
			MeanDiff:   pick.Insight.MeanDiff,
			MedianDiff: pick.Insight.MedianDiff,
			StdDevDiff: pick.Insight.StdDevDiff,
		},
	}
}

// Marshal renders the result as JSON for publishing.
func (r *Result) Marshal() ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode batch result: %w", err)
	}
	return raw, nil
}
