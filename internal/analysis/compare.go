package analysis

import (
	"statmatch/internal/fingerprint"
)

// Comparison is the outcome of comparing two statistic vectors under the
// field-compatibility gate. Incomparable pairs carry no distance at all,
// so the "infinite distance" of the gate can never leak into arithmetic.
type Comparison struct {
	Distance   float64
	Comparable bool
}

// Comparable wraps a computed distance.
func Comparable(distance float64) Comparison {
	return Comparison{Distance: distance, Comparable: true}
}

// Incomparable marks a pair rejected by the gate.
func Incomparable() Comparison {
	return Comparison{}
}

// ComparePercentiles computes the distance over the percentile triples only.
func ComparePercentiles(candidate, root fingerprint.StatisticVector) float64 {
	return Wasserstein(candidate.PercentileValues(), root.PercentileValues())
}

// CompareStatistics computes the distance over the full ten-value vectors
// without consulting the gate.
func CompareStatistics(candidate, root fingerprint.StatisticVector) float64 {
	return Wasserstein(candidate.Values(), root.Values())
}

// CompareStatisticsGated computes the full-vector distance after checking
// field compatibility. A gate rejection short-circuits: no distance is
// computed and the result is marked incomparable.
func CompareStatisticsGated(candidate, root fingerprint.StatisticVector, candidateFieldID, rootFieldID string) Comparison {
	if !ShouldCompareFields(candidateFieldID, rootFieldID) {
		return Incomparable()
	}
	return Comparable(CompareStatistics(candidate, root))
}

// Interpretation labels for finite distances.
const (
	InterpretationVerySimilar       = "Very similar statistical profiles"
	InterpretationModeratelySimilar = "Moderately similar statistical profiles"
	InterpretationSomewhatDifferent = "Somewhat different statistical profiles"
	InterpretationVeryDifferent     = "Very different statistical profiles"
)

// Interpret maps a finite distance onto its human-readable label.
func Interpret(distance float64) string {
	switch {
	case distance < 5:
		return InterpretationVerySimilar
	case distance < 10:
		return InterpretationModeratelySimilar
	case distance < 20:
		return InterpretationSomewhatDifferent
	default:
		return InterpretationVeryDifferent
	}
}
