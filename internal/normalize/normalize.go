// Package normalize implements the score normalization techniques.
//
// The technique set is closed: min_max, l2, z_score and z_score_robust.
// Techniques hold only validated, immutable parameters and are safe for
// concurrent use; all per-request state lives in the hits container and
// the explanation recorder.
package normalize

import (
	"math"
	"sort"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/explain"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/params"
	"github.com/Aman-CERP/scorefusion/internal/stats"
)

// Technique names.
const (
	MinMaxName       = "min_max"
	L2Name           = "l2"
	ZScoreName       = "z_score"
	RobustZScoreName = "z_score_robust"
)

// Floor is the smallest value the Z-Score techniques emit, keeping every
// normalized score strictly positive.
const Floor = 0.001

// Technique rewrites every hit score of a request onto a common scale.
type Technique interface {
	// Name returns the configuration name.
	Name() string

	// Describe returns the label used in explanations.
	Describe() string

	// ValidateSubQueryCount checks per-sub-query parameters against the
	// request's sub-query count.
	ValidateSubQueryCount(numSubQueries int) error

	// Normalize consumes raw and rewrites every score in place using the
	// request-wide snapshots. When rec is non-nil the raw and written values
	// are recorded for every hit.
	Normalize(raw *hits.Raw, snaps []stats.Snapshot, rec *explain.Recorder) (*hits.Normalized, error)

	// normalizeScore maps one score of sub-query i. Unexported to keep the
	// technique set closed.
	normalizeScore(i int, score float64, snap stats.Snapshot) float64
}

// Info describes a technique for listings.
type Info struct {
	Name        string   `json:"name"`
	Params      []string `json:"params"`
	Description string   `json:"description"`
}

var catalog = map[string]Info{
	MinMaxName: {
		Name:        MinMaxName,
		Params:      []string{params.LowerBounds, params.UpperBounds},
		Description: "(score - min) / (max - min), with optional per-sub-query bounds",
	},
	L2Name: {
		Name:        L2Name,
		Description: "score / sqrt(sum of squares)",
	},
	ZScoreName: {
		Name:        ZScoreName,
		Description: "(score - mean) / stddev, floored to 0.001",
	},
	RobustZScoreName: {
		Name:        RobustZScoreName,
		Description: "(score - median) / MAD, floored to 0.001",
	},
}

// Catalog lists every technique sorted by name.
func Catalog() []Info {
	out := make([]Info, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// New resolves a technique by name and validates its parameters.
func New(name string, p map[string]any) (Technique, error) {
	info, ok := catalog[name]
	if !ok {
		return nil, ferrors.Newf(ferrors.ErrCodeUnknownTechnique,
			"provided normalization technique is not supported: %s", name).
			WithSuggestion("use one of: min_max, l2, z_score, z_score_robust")
	}
	if err := params.CheckAccepted(name, p, info.Params...); err != nil {
		return nil, err
	}

	switch name {
	case MinMaxName:
		lower, upper, err := params.ParseBounds(p)
		if err != nil {
			return nil, err
		}
		return &MinMax{lower: lower, upper: upper}, nil
	case L2Name:
		return L2{}, nil
	case ZScoreName:
		return ZScore{}, nil
	default:
		return RobustZScore{}, nil
	}
}

// IsZScore reports whether t is one of the Z-Score techniques, whose output
// only pairs with the arithmetic mean.
func IsZScore(t Technique) bool {
	switch t.(type) {
	case ZScore, RobustZScore, *ZScore, *RobustZScore:
		return true
	}
	return false
}

// run is the shared normalization pass.
func run(t Technique, raw *hits.Raw, snaps []stats.Snapshot, rec *explain.Recorder) (*hits.Normalized, error) {
	if raw.Consumed() {
		return nil, ferrors.New(ferrors.ErrCodeAlreadyProcessed,
			"results were already normalized; build a fresh container per request", nil)
	}
	n := raw.NumSubQueries()
	if len(snaps) != n {
		return nil, ferrors.Newf(ferrors.ErrCodeInternal,
			"got %d statistics snapshots for %d sub-queries", len(snaps), n)
	}
	if err := t.ValidateSubQueryCount(n); err != nil {
		return nil, err
	}

	description := t.Describe() + " normalization of:"
	return raw.Normalize(func(groups []*hits.CompoundResult, n int) error {
		for _, g := range groups {
			if g == nil {
				continue
			}
			for i, list := range g.SubQueries {
				for j := range list {
					doc := &list[j]
					score := doc.Score
					// NaN is scored as 0, matching the statistics
					if math.IsNaN(score) {
						score = 0
					}
					v := t.normalizeScore(i, score, snaps[i])
					if rec != nil {
						key := hits.DocumentShardKey{DocID: doc.ID, Shard: g.Shard}
						rec.RecordRaw(key, i, score)
						rec.RecordNormalized(key, i, v, description)
					}
					doc.Score = v
				}
			}
		}
		return nil
	})
}
