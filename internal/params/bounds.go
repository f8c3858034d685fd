package params

import (
	"fmt"
	"strings"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
)

// Bound score limits.
const (
	MinBoundScore = -10_000.0
	MaxBoundScore = 10_000.0

	DefaultLowerBoundScore = 0.0
	DefaultUpperBoundScore = 1.0
)

// Mode selects how a configured bound interacts with the observed range.
type Mode int

const (
	// ModeApply uses the bound only when it tightens the observed range.
	ModeApply Mode = iota
	// ModeClip always uses the bound and clamps the output into [0, 1].
	ModeClip
	// ModeIgnore disables the bound.
	ModeIgnore
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeApply:
		return "apply"
	case ModeClip:
		return "clip"
	case ModeIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name, case-insensitively. Empty means apply.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "apply":
		return ModeApply, nil
	case "clip":
		return ModeClip, nil
	case "ignore":
		return ModeIgnore, nil
	default:
		return 0, fmt.Errorf("unsupported mode %q, expected apply, clip or ignore", s)
	}
}

// Bound is one sub-query's configured lower or upper score bound.
type Bound struct {
	Mode  Mode
	Score float64
}

// Active reports whether the bound takes part in normalization.
func (b Bound) Active() bool { return b.Mode != ModeIgnore }

// String renders "mode:score".
func (b Bound) String() string {
	return fmt.Sprintf("%s:%g", b.Mode, b.Score)
}

// ParseBounds returns the lower and upper bound lists. An absent list is
// nil. When both lists carry an active bound for the same sub-query the
// lower score must be strictly below the upper score.
func ParseBounds(params map[string]any) (lower, upper []Bound, err error) {
	lower, err = parseBoundList(params, LowerBounds, "min_score", DefaultLowerBoundScore)
	if err != nil {
		return nil, nil, err
	}
	upper, err = parseBoundList(params, UpperBounds, "max_score", DefaultUpperBoundScore)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < len(lower) && i < len(upper); i++ {
		lb, ub := lower[i], upper[i]
		if lb.Active() && ub.Active() && lb.Score >= ub.Score {
			return nil, nil, ferrors.Newf(ferrors.ErrCodeInvalidParameter,
				"lower bound %g must be less than upper bound %g for sub-query %d",
				lb.Score, ub.Score, i).
				WithDetail("parameter", LowerBounds)
		}
	}
	return lower, upper, nil
}

func parseBoundList(params map[string]any, name, scoreKey string, def float64) ([]Bound, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return nil, nil
	}
	if typed, ok := raw.([]Bound); ok {
		for i, b := range typed {
			if err := checkBoundScore(name, i, b.Score); err != nil {
				return nil, err
			}
		}
		return typed, nil
	}

	items, err := toList(raw)
	if err != nil {
		return nil, invalid(name, err.Error())
	}

	bounds := make([]Bound, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, invalid(name, fmt.Sprintf("entry %d must be a map, got %T", i, item))
		}
		b, err := parseBound(name, i, entry, scoreKey, def)
		if err != nil {
			return nil, err
		}
		bounds[i] = b
	}
	return bounds, nil
}

func parseBound(name string, i int, entry map[string]any, scoreKey string, def float64) (Bound, error) {
	for k := range entry {
		if k != "mode" && k != scoreKey {
			return Bound{}, invalid(name, fmt.Sprintf("entry %d has unsupported key %q", i, k))
		}
	}

	b := Bound{Mode: ModeApply, Score: def}

	if m, ok := entry["mode"]; ok && m != nil {
		s, ok := m.(string)
		if !ok {
			return Bound{}, invalid(name, fmt.Sprintf("entry %d mode must be a string, got %T", i, m))
		}
		mode, err := ParseMode(s)
		if err != nil {
			return Bound{}, invalid(name, fmt.Sprintf("entry %d: %v", i, err))
		}
		b.Mode = mode
	}

	if v, ok := entry[scoreKey]; ok && v != nil {
		f, err := ToFloat(v)
		if err != nil {
			return Bound{}, invalid(name, fmt.Sprintf("entry %d %s: %v", i, scoreKey, err))
		}
		b.Score = f
	}

	if err := checkBoundScore(name, i, b.Score); err != nil {
		return Bound{}, err
	}
	return b, nil
}

func checkBoundScore(name string, i int, score float64) error {
	if score < MinBoundScore || score > MaxBoundScore {
		return invalid(name, fmt.Sprintf("entry %d score %g must be within [%g, %g]",
			i, score, MinBoundScore, MaxBoundScore))
	}
	return nil
}
