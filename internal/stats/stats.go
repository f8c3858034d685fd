// Package stats computes the per-sub-query descriptive statistics that
// every normalization technique reads.
//
// Statistics are global: they span every shard group of a request, not a
// single shard, and are computed once per request.
package stats

import (
	"math"
	"sort"

	"github.com/Aman-CERP/scorefusion/internal/hits"
)

const (
	// MADScale turns the median absolute deviation into a standard-deviation
	// equivalent under normality.
	MADScale = 1.4826

	// MeanAbsDevScale turns the mean absolute deviation into a
	// standard-deviation equivalent under normality.
	MeanAbsDevScale = 1.2533
)

// Snapshot holds the statistics of one sub-query's scores across all shards.
// A sub-query without scores has the zero Snapshot.
type Snapshot struct {
	Count      int
	Min        float64
	Max        float64
	Mean       float64
	StdDev     float64 // sample standard deviation; 0 for fewer than two scores
	Median     float64
	MAD        float64 // scaled by MADScale
	MeanAbsDev float64 // mean |x - median|, scaled by MeanAbsDevScale
	SumSquares float64
}

// Empty reports whether the sub-query had no scores at all.
func (s Snapshot) Empty() bool { return s.Count == 0 }

// accumulator streams one sub-query's scores.
type accumulator struct {
	sum        float64
	sumSquares float64
	min        float64
	max        float64
	values     []float64
}

// add streams v; NaN counts as 0.
func (a *accumulator) add(v float64) {
	if math.IsNaN(v) {
		v = 0
	}
	if len(a.values) == 0 {
		a.min, a.max = v, v
	} else {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	a.sum += v
	a.sumSquares += v * v
	a.values = append(a.values, v)
}

func (a *accumulator) snapshot() Snapshot {
	n := len(a.values)
	if n == 0 {
		return Snapshot{}
	}

	mean := a.sum / float64(n)

	var stdDev float64
	if n > 1 {
		var sq float64
		for _, v := range a.values {
			d := v - mean
			sq += d * d
		}
		stdDev = math.Sqrt(sq / float64(n-1))
	}

	sort.Float64s(a.values)
	median := medianOfSorted(a.values)

	deviations := make([]float64, n)
	var absDevSum float64
	for i, v := range a.values {
		deviations[i] = math.Abs(v - median)
		absDevSum += deviations[i]
	}
	sort.Float64s(deviations)

	return Snapshot{
		Count:      n,
		Min:        a.min,
		Max:        a.max,
		Mean:       mean,
		StdDev:     stdDev,
		Median:     median,
		MAD:        medianOfSorted(deviations) * MADScale,
		MeanAbsDev: absDevSum / float64(n) * MeanAbsDevScale,
		SumSquares: a.sumSquares,
	}
}

// medianOfSorted returns the middle value, or the mean of the two middle
// values for even counts.
func medianOfSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Aggregate scans every present group once and returns one Snapshot per
// sub-query. Nil groups are skipped. Groups with fewer than numSubQueries
// lists contribute only the lists they have.
func Aggregate(groups []*hits.CompoundResult, numSubQueries int) []Snapshot {
	accs := make([]accumulator, numSubQueries)
	for _, g := range groups {
		if g == nil {
			continue
		}
		for i, list := range g.SubQueries {
			if i >= numSubQueries {
				break
			}
			for _, doc := range list {
				accs[i].add(doc.Score)
			}
		}
	}

	snaps := make([]Snapshot, numSubQueries)
	for i := range accs {
		snaps[i] = accs[i].snapshot()
	}
	return snaps
}
