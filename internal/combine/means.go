package combine

import "math"

// ArithmeticMean is sum(w*s) / sum(w) over matched sub-queries.
type ArithmeticMean struct{ weighted }

// Name implements Technique.
func (ArithmeticMean) Name() string { return ArithmeticMeanName }

// Describe implements Technique.
func (t ArithmeticMean) Describe() string { return t.describe(ArithmeticMeanName) }

// Combine implements Technique.
func (t ArithmeticMean) Combine(scores []Score) float64 { return t.mean(scores, t.weight) }

func (ArithmeticMean) mean(scores []Score, weight func(int) float64) float64 {
	var sum, weights float64
	for i, s := range scores {
		if !s.Matched {
			continue
		}
		w := weight(i)
		sum += w * s.Value
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// GeometricMean is exp(sum(w*ln s) / sum(w)) over matched sub-queries with
// positive scores; scores <= 0 are excluded.
type GeometricMean struct{ weighted }

// Name implements Technique.
func (GeometricMean) Name() string { return GeometricMeanName }

// Describe implements Technique.
func (t GeometricMean) Describe() string { return t.describe(GeometricMeanName) }

// Combine implements Technique.
func (t GeometricMean) Combine(scores []Score) float64 { return t.mean(scores, t.weight) }

func (GeometricMean) mean(scores []Score, weight func(int) float64) float64 {
	return geometric(scores, weight, func(v float64) (float64, bool) {
		return v, v > 0
	})
}

// GeometricMeanWithNegativesSupport is the geometric mean with scores <= 0
// raised to NonPositiveFloor instead of excluded.
type GeometricMeanWithNegativesSupport struct{ weighted }

// Name implements Technique.
func (GeometricMeanWithNegativesSupport) Name() string {
	return GeometricMeanWithNegativesSupportName
}

// Describe implements Technique.
func (t GeometricMeanWithNegativesSupport) Describe() string {
	return t.describe(GeometricMeanWithNegativesSupportName)
}

// Combine implements Technique.
func (t GeometricMeanWithNegativesSupport) Combine(scores []Score) float64 {
	return t.mean(scores, t.weight)
}

func (GeometricMeanWithNegativesSupport) mean(scores []Score, weight func(int) float64) float64 {
	return geometric(scores, weight, func(v float64) (float64, bool) {
		if v <= 0 {
			return NonPositiveFloor, true
		}
		return v, true
	})
}

func geometric(scores []Score, weight func(int) float64, admit func(float64) (float64, bool)) float64 {
	var logSum, weights float64
	for i, s := range scores {
		if !s.Matched {
			continue
		}
		v, ok := admit(s.Value)
		if !ok {
			continue
		}
		w := weight(i)
		logSum += w * math.Log(v)
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return math.Exp(logSum / weights)
}

// HarmonicMean is sum(w) / sum(w/s) over matched sub-queries with positive
// scores.
type HarmonicMean struct{ weighted }

// Name implements Technique.
func (HarmonicMean) Name() string { return HarmonicMeanName }

// Describe implements Technique.
func (t HarmonicMean) Describe() string { return t.describe(HarmonicMeanName) }

// Combine implements Technique.
func (t HarmonicMean) Combine(scores []Score) float64 { return t.mean(scores, t.weight) }

func (HarmonicMean) mean(scores []Score, weight func(int) float64) float64 {
	var weights, inverse float64
	for i, s := range scores {
		if !s.Matched || s.Value <= 0 {
			continue
		}
		w := weight(i)
		weights += w
		inverse += w / s.Value
	}
	if weights == 0 || inverse == 0 {
		return 0
	}
	return weights / inverse
}
