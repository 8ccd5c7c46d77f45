package analysis

import (
	"math"
	"sort"

	"statmatch/internal/fingerprint"
)

// Root is one of the trusted reference fingerprints candidates are ranked
// against. Roots without statistics are skipped entirely.
type Root struct {
	ID       string
	Stats    fingerprint.StatisticVector
	HasStats bool
	Field    fingerprint.FieldDescriptor
}

// Insight explains why a candidate was selected as closest or farthest:
// which root produced the extreme distance and how the headline statistics
// differ between the two fields.
type Insight struct {
	RootID         string
	FieldName      string
	FieldType      string
	Interpretation string
	ComparedTo     string
	MeanDiff       float64
	MedianDiff     float64
	StdDevDiff     float64
}

// Pick is a ranked candidate with the distance that earned its position.
type Pick struct {
	CandidateID string
	Distance    float64
	Insight     Insight
}

// Ranking is the global verdict over one batch of candidates.
type Ranking struct {
	Closest  *Pick
	Farthest *Pick
	// Aggregates maps each ranked candidate id to its aggregate distance
	// (minimum comparable distance across roots). Candidates without
	// statistics or whose every root pairing was gated away are absent.
	Aggregates map[string]float64
}

type candidateScore struct {
	aggregate float64
	bestRoot  Root
}

// Rank aggregates gated distances for each candidate against the root set
// and selects the closest and farthest candidates. A candidate's aggregate
// is its minimum comparable distance: resembling one trusted reference is
// enough, since roots may represent disjoint valid prototypes. Candidates
// without statistics and candidates with no comparable root pairing are
// excluded from both selections.
//
// Candidates are evaluated in sorted-id order and an incumbent is only
// replaced on strict improvement, so ties resolve to the lexicographically
// smallest candidate id.
func Rank(candidates []fingerprint.Fingerprint, roots []Root) Ranking {
	ranking := Ranking{Aggregates: make(map[string]float64, len(candidates))}

	ordered := make([]fingerprint.Fingerprint, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	closestDistance := math.Inf(1)
	farthestDistance := math.Inf(-1)

	for _, candidate := range ordered {
		score, ok := scoreCandidate(candidate, roots)
		if !ok {
			continue
		}
		ranking.Aggregates[candidate.ID] = score.aggregate

		if score.aggregate < closestDistance {
			closestDistance = score.aggregate
			ranking.Closest = newPick(candidate, score)
		}
		if score.aggregate > farthestDistance {
			farthestDistance = score.aggregate
			ranking.Farthest = newPick(candidate, score)
		}
	}

	return ranking
}

// scoreCandidate computes the candidate's aggregate distance and remembers
// the root that produced it. The second return is false when no root
// pairing was comparable.
func scoreCandidate(candidate fingerprint.Fingerprint, roots []Root) (candidateScore, bool) {
	best := candidateScore{aggregate: math.Inf(1)}
	if !candidate.HasStats {
		return best, false
	}
	found := false
	for _, root := range roots {
		if !root.HasStats {
			continue
		}
		result := CompareStatisticsGated(candidate.Stats, root.Stats, candidate.Field.FieldID, root.Field.FieldID)
		if !result.Comparable {
			continue
		}
		if result.Distance < best.aggregate {
			best.aggregate = result.Distance
			best.bestRoot = root
		}
		found = true
	}
	return best, found
}

func newPick(candidate fingerprint.Fingerprint, score candidateScore) *Pick {
	root := score.bestRoot
	return &Pick{
		CandidateID: candidate.ID,
		Distance:    score.aggregate,
		Insight: Insight{
			RootID:         root.ID,
			FieldName:      candidate.Field.Name,
			FieldType:      candidate.Field.DataType,
			Interpretation: Interpret(score.aggregate),
			ComparedTo:     root.Field.Name,
			MeanDiff:       math.Abs(candidate.Stats.Mean - root.Stats.Mean),
			MedianDiff:     math.Abs(candidate.Stats.Median - root.Stats.Median),
			StdDevDiff:     math.Abs(candidate.Stats.StdDev - root.Stats.StdDev),
		},
	}
}
