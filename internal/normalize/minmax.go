package normalize

import (
	"fmt"
	"strings"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/explain"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/params"
	"github.com/Aman-CERP/scorefusion/internal/stats"
)

// MinMax rescales each sub-query onto [0, 1] using its observed range,
// optionally overridden by configured bounds.
type MinMax struct {
	lower []params.Bound
	upper []params.Bound
}

// NewMinMax returns a min_max technique. Nil bound lists disable bounds.
func NewMinMax(lower, upper []params.Bound) *MinMax {
	return &MinMax{lower: lower, upper: upper}
}

// Name implements Technique.
func (m *MinMax) Name() string { return MinMaxName }

// Describe implements Technique.
func (m *MinMax) Describe() string { return MinMaxName }

// Bounds returns the configured lower and upper bounds.
func (m *MinMax) Bounds() (lower, upper []params.Bound) { return m.lower, m.upper }

// String lists the bounds, for logs.
func (m *MinMax) String() string {
	if m.lower == nil && m.upper == nil {
		return MinMaxName
	}
	return fmt.Sprintf("%s, lower bounds %s, upper bounds %s", MinMaxName, boundList(m.lower), boundList(m.upper))
}

func boundList(bounds []params.Bound) string {
	parts := make([]string, len(bounds))
	for i, b := range bounds {
		parts[i] = b.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ValidateSubQueryCount implements Technique.
func (m *MinMax) ValidateSubQueryCount(numSubQueries int) error {
	if m.lower != nil {
		if err := params.CheckCount(ferrors.ErrCodeBoundsMismatch, params.LowerBounds, len(m.lower), numSubQueries); err != nil {
			return err
		}
	}
	if m.upper != nil {
		if err := params.CheckCount(ferrors.ErrCodeBoundsMismatch, params.UpperBounds, len(m.upper), numSubQueries); err != nil {
			return err
		}
	}
	return nil
}

// Normalize implements Technique.
func (m *MinMax) Normalize(raw *hits.Raw, snaps []stats.Snapshot, rec *explain.Recorder) (*hits.Normalized, error) {
	return run(m, raw, snaps, rec)
}

// EffectiveRange returns the range sub-query i is normalized against.
//
// apply replaces an endpoint only when the bound lies strictly inside the
// observed range. clip replaces it whenever the result is still a valid
// range, including bounds beyond the observed data.
func (m *MinMax) EffectiveRange(i int, snap stats.Snapshot) (lo, hi float64) {
	lo, hi = snap.Min, snap.Max

	if i < len(m.lower) {
		switch b := m.lower[i]; b.Mode {
		case params.ModeApply:
			if b.Score > snap.Min && b.Score < snap.Max {
				lo = b.Score
			}
		case params.ModeClip:
			if b.Score < hi {
				lo = b.Score
			}
		}
	}
	if i < len(m.upper) {
		switch b := m.upper[i]; b.Mode {
		case params.ModeApply:
			if b.Score > snap.Min && b.Score < snap.Max && b.Score > lo {
				hi = b.Score
			}
		case params.ModeClip:
			if b.Score > lo {
				hi = b.Score
			}
		}
	}
	return lo, hi
}

func (m *MinMax) normalizeScore(i int, score float64, snap stats.Snapshot) float64 {
	lo, hi := m.EffectiveRange(i, snap)
	if hi <= lo {
		return 1.0
	}
	v := (score - lo) / (hi - lo)
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
