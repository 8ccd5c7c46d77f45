package analysis

import (
	"math"
	"testing"

	"statmatch/internal/fingerprint"
)

func testField(id string) fingerprint.FieldDescriptor {
	return fingerprint.FieldDescriptor{FieldID: id, Name: "Value", DataType: "number"}
}

func TestRankClosestAndFarthest(t *testing.T) {
	roots := []Root{{
		ID:       "root-1",
		Stats:    uniformVector(0),
		HasStats: true,
		Field:    testField("ref/value"),
	}}
	candidates := []fingerprint.Fingerprint{
		{ID: "c1", Stats: uniformVector(3), HasStats: true, Field: testField("a/value")},
		{ID: "c2", Stats: uniformVector(12), HasStats: true, Field: testField("b/value")},
	}

	ranking := Rank(candidates, roots)
	if ranking.Closest == nil || ranking.Closest.CandidateID != "c1" {
		t.Fatalf("unexpected closest: %+v", ranking.Closest)
	}
	if math.Abs(ranking.Closest.Distance-3) > 1e-12 {
		t.Fatalf("unexpected closest distance: %v", ranking.Closest.Distance)
	}
	if ranking.Closest.Insight.Interpretation != InterpretationVerySimilar {
		t.Fatalf("unexpected closest interpretation: %q", ranking.Closest.Insight.Interpretation)
	}
	if ranking.Farthest == nil || ranking.Farthest.CandidateID != "c2" {
		t.Fatalf("unexpected farthest: %+v", ranking.Farthest)
	}
	if ranking.Farthest.Insight.Interpretation != InterpretationSomewhatDifferent {
		t.Fatalf("unexpected farthest interpretation: %q", ranking.Farthest.Insight.Interpretation)
	}
	if ranking.Farthest.Insight.RootID != "root-1" || ranking.Farthest.Insight.ComparedTo != "Value" {
		t.Fatalf("unexpected farthest insight: %+v", ranking.Farthest.Insight)
	}
}

func TestRankAggregateIsMinimumAcrossRoots(t *testing.T) {
	roots := []Root{
		{ID: "root-1", Stats: uniformVector(0), HasStats: true, Field: testField("ref/value")},
		{ID: "root-2", Stats: uniformVector(10), HasStats: true, Field: testField("ref2/value")},
	}
	candidates := []fingerprint.Fingerprint{
		{ID: "c1", Stats: uniformVector(9), HasStats: true, Field: testField("a/value")},
	}

	ranking := Rank(candidates, roots)
	if ranking.Closest == nil {
		t.Fatal("expected a ranked candidate")
	}
	// Distance 9 to root-1 but only 1 to root-2; the aggregate takes the minimum.
	if math.Abs(ranking.Closest.Distance-1) > 1e-12 {
		t.Fatalf("expected aggregate distance 1, got %v", ranking.Closest.Distance)
	}
	if ranking.Closest.Insight.RootID != "root-2" {
		t.Fatalf("expected insight against root-2, got %q", ranking.Closest.Insight.RootID)
	}
}

func TestRankExcludesFullyGatedCandidate(t *testing.T) {
	roots := []Root{{
		ID:       "root-1",
		Stats:    uniformVector(5),
		HasStats: true,
		Field:    testField("dataset/Salary"),
	}}
	candidates := []fingerprint.Fingerprint{
		// Statistics identical to the root but the field pairing is rejected.
		{ID: "only", Stats: uniformVector(5), HasStats: true, Field: testField("dataset/Age")},
	}

	ranking := Rank(candidates, roots)
	if ranking.Closest != nil || ranking.Farthest != nil {
		t.Fatalf("expected no ranked candidates, got %+v / %+v", ranking.Closest, ranking.Farthest)
	}
	if len(ranking.Aggregates) != 0 {
		t.Fatalf("expected empty aggregates, got %v", ranking.Aggregates)
	}
}

func TestRankSkipsRootsWithoutStats(t *testing.T) {
	roots := []Root{
		{ID: "root-1", HasStats: false, Field: testField("ref/value")},
	}
	candidates := []fingerprint.Fingerprint{
		{ID: "c1", Stats: uniformVector(1), HasStats: true, Field: testField("a/value")},
	}
	ranking := Rank(candidates, roots)
	if ranking.Closest != nil {
		t.Fatalf("expected no ranking against stat-less roots, got %+v", ranking.Closest)
	}
}

func TestRankExcludesCandidatesWithoutStats(t *testing.T) {
	roots := []Root{{
		ID:       "root-1",
		Stats:    uniformVector(60),
		HasStats: true,
		Field:    testField("ref/value"),
	}}
	candidates := []fingerprint.Fingerprint{
		{ID: "real", Stats: uniformVector(59), HasStats: true, Field: testField("a/value")},
		// Field block present, statistics block absent: the zero vector must
		// not rank this candidate as the farthest fingerprint.
		{ID: "statless", HasStats: false, Field: testField("b/value")},
	}

	ranking := Rank(candidates, roots)
	if ranking.Closest == nil || ranking.Closest.CandidateID != "real" {
		t.Fatalf("unexpected closest: %+v", ranking.Closest)
	}
	if ranking.Farthest == nil || ranking.Farthest.CandidateID != "real" {
		t.Fatalf("unexpected farthest: %+v", ranking.Farthest)
	}
	if _, present := ranking.Aggregates["statless"]; present {
		t.Fatal("stat-less candidate must not receive an aggregate distance")
	}
}

func TestRankTieBreaksOnSmallestID(t *testing.T) {
	roots := []Root{{
		ID:       "root-1",
		Stats:    uniformVector(0),
		HasStats: true,
		Field:    testField("ref/value"),
	}}
	// Both candidates sit at the same distance; iteration order in the
	// input must not influence the verdict.
	candidates := []fingerprint.Fingerprint{
		{ID: "zz", Stats: uniformVector(4), HasStats: true, Field: testField("a/value")},
		{ID: "aa", Stats: uniformVector(4), HasStats: true, Field: testField("b/value")},
	}

	ranking := Rank(candidates, roots)
	if ranking.Closest == nil || ranking.Closest.CandidateID != "aa" {
		t.Fatalf("expected aa to win closest tie, got %+v", ranking.Closest)
	}
	if ranking.Farthest == nil || ranking.Farthest.CandidateID != "aa" {
		t.Fatalf("expected aa to win farthest tie, got %+v", ranking.Farthest)
	}
}

func TestRankSingleCandidateIsBothClosestAndFarthest(t *testing.T) {
	roots := []Root{{
		ID:       "root-1",
		Stats:    uniformVector(0),
		HasStats: true,
		Field:    testField("ref/value"),
	}}
	candidates := []fingerprint.Fingerprint{
		{ID: "c1", Stats: uniformVector(7), HasStats: true, Field: testField("a/value")},
	}
	ranking := Rank(candidates, roots)
	if ranking.Closest == nil || ranking.Farthest == nil {
		t.Fatal("expected both picks for a single candidate")
	}
	if ranking.Closest.CandidateID != "c1" || ranking.Farthest.CandidateID != "c1" {
		t.Fatalf("expected c1 in both positions: %+v / %+v", ranking.Closest, ranking.Farthest)
	}
	if got := ranking.Aggregates["c1"]; math.Abs(got-7) > 1e-12 {
		t.Fatalf("unexpected aggregate: %v", got)
	}
}

func TestRankInsightDifferences(t *testing.T) {
	root := Root{
		ID:       "root-1",
		Stats:    fingerprint.StatisticVector{Mean: 10, Median: 8, StdDev: 2},
		HasStats: true,
		Field:    fingerprint.FieldDescriptor{FieldID: "ref/value", Name: "Reference"},
	}
	candidate := fingerprint.Fingerprint{
		ID:       "c1",
		Stats:    fingerprint.StatisticVector{Mean: 6, Median: 11, StdDev: 5},
		HasStats: true,
		Field:    fingerprint.FieldDescriptor{FieldID: "a/value", Name: "Candidate", DataType: "float"},
	}

	ranking := Rank([]fingerprint.Fingerprint{candidate}, []Root{root})
	if ranking.Closest == nil {
		t.Fatal("expected ranked candidate")
	}
	insight := ranking.Closest.Insight
	if insight.MeanDiff != 4 || insight.MedianDiff != 3 || insight.StdDevDiff != 3 {
		t.Fatalf("unexpected differences: %+v", insight)
	}
	if insight.FieldName != "Candidate" || insight.FieldType != "float" || insight.ComparedTo != "Reference" {
		t.Fatalf("unexpected insight metadata: %+v", insight)
	}
}
