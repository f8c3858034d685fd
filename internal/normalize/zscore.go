package normalize

import (
	"github.com/Aman-CERP/scorefusion/internal/explain"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/stats"
)

// ZScore standardizes scores by mean and sample standard deviation.
type ZScore struct{}

// Name implements Technique.
func (ZScore) Name() string { return ZScoreName }

// Describe implements Technique.
func (ZScore) Describe() string { return ZScoreName }

// ValidateSubQueryCount implements Technique.
func (ZScore) ValidateSubQueryCount(int) error { return nil }

// Normalize implements Technique.
func (t ZScore) Normalize(raw *hits.Raw, snaps []stats.Snapshot, rec *explain.Recorder) (*hits.Normalized, error) {
	return run(t, raw, snaps, rec)
}

// Scores equal to the mean, and every score of a zero-variance sub-query,
// map to the sub-query's max raw score.
func (ZScore) normalizeScore(_ int, score float64, snap stats.Snapshot) float64 {
	if snap.StdDev == 0 || score == snap.Mean {
		return snap.Max
	}
	v := (score - snap.Mean) / snap.StdDev
	if v <= 0 {
		return Floor
	}
	return v
}

// RobustZScore standardizes scores by median and MAD, falling back to the
// scaled mean absolute deviation when MAD is zero.
type RobustZScore struct{}

// Name implements Technique.
func (RobustZScore) Name() string { return RobustZScoreName }

// Describe implements Technique.
func (RobustZScore) Describe() string { return RobustZScoreName }

// ValidateSubQueryCount implements Technique.
func (RobustZScore) ValidateSubQueryCount(int) error { return nil }

// Normalize implements Technique.
func (t RobustZScore) Normalize(raw *hits.Raw, snaps []stats.Snapshot, rec *explain.Recorder) (*hits.Normalized, error) {
	return run(t, raw, snaps, rec)
}

func (RobustZScore) normalizeScore(_ int, score float64, snap stats.Snapshot) float64 {
	if score == snap.Median {
		return 1.0
	}
	divisor := snap.MAD
	if divisor == 0 {
		divisor = snap.MeanAbsDev
	}
	if divisor == 0 {
		return 1.0
	}
	v := (score - snap.Median) / divisor
	if v < 0 {
		return Floor
	}
	return v
}
