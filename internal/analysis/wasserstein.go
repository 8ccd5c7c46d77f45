package analysis

import (
	"math"
	"sort"
)

// Wasserstein computes the 1-Wasserstein (earth mover's) distance between
// two empirical one-dimensional distributions, each given as an unordered
// sample multiset. The metric is symmetric and zero iff the multisets are
// equal. For equal-length inputs it reduces to the mean absolute difference
// of the independently sorted samples.
func Wasserstein(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	as := sortedCopy(a)
	bs := sortedCopy(b)

	merged := make([]float64, 0, len(as)+len(bs))
	merged = append(merged, as...)
	merged = append(merged, bs...)
	sort.Float64s(merged)

	// Integrate |CDF_a - CDF_b| over the merged support.
	var total float64
	var ia, ib int
	for i := 0; i < len(merged)-1; i++ {
		value := merged[i]
		for ia < len(as) && as[ia] <= value {
			ia++
		}
		for ib < len(bs) && bs[ib] <= value {
			ib++
		}
		cdfA := float64(ia) / float64(len(as))
		cdfB := float64(ib) / float64(len(bs))
		total += math.Abs(cdfA-cdfB) * (merged[i+1] - merged[i])
	}
	return total
}

func sortedCopy(values []float64) []float64 {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return cp
}
