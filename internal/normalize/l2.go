package normalize

import (
	"math"

	"github.com/Aman-CERP/scorefusion/internal/explain"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/stats"
)

// L2 divides each score by the Euclidean norm of its sub-query's scores.
type L2 struct{}

// Name implements Technique.
func (L2) Name() string { return L2Name }

// Describe implements Technique.
func (L2) Describe() string { return L2Name }

// ValidateSubQueryCount implements Technique.
func (L2) ValidateSubQueryCount(int) error { return nil }

// Normalize implements Technique.
func (t L2) Normalize(raw *hits.Raw, snaps []stats.Snapshot, rec *explain.Recorder) (*hits.Normalized, error) {
	return run(t, raw, snaps, rec)
}

func (L2) normalizeScore(_ int, score float64, snap stats.Snapshot) float64 {
	norm := math.Sqrt(snap.SumSquares)
	if norm == 0 {
		return 0
	}
	return score / norm
}
