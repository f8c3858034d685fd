// Package combine implements the score combination techniques that fold a
// document's normalized per-sub-query scores into one value.
//
// Sub-queries a document did not match are excluded from both numerator
// and denominator; they never count as a zero score.
package combine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/explain"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/params"
)

// Technique names.
const (
	ArithmeticMeanName                    = "arithmetic_mean"
	GeometricMeanName                     = "geometric_mean"
	GeometricMeanWithNegativesSupportName = "geometric_mean_with_negatives_support"
	HarmonicMeanName                      = "harmonic_mean"
)

// NonPositiveFloor replaces scores <= 0 in the negatives-tolerant geometric
// mean so the logarithm stays defined.
const NonPositiveFloor = 0.001

// Score is one sub-query's normalized score for a document.
type Score struct {
	Value   float64
	Matched bool
}

// Technique folds per-sub-query scores into one value.
type Technique interface {
	// Name returns the configuration name.
	Name() string

	// Describe returns the label used in explanations, with the weights when
	// configured.
	Describe() string

	// Weights returns the configured weights, or nil.
	Weights() []float64

	// ValidateSubQueryCount checks the weight count against the request.
	ValidateSubQueryCount(numSubQueries int) error

	// Combine folds scores, indexed by sub-query.
	Combine(scores []Score) float64

	// mean is the technique's weighted mean over matched scores.
	mean(scores []Score, weight func(i int) float64) float64
}

// Info describes a technique for listings.
type Info struct {
	Name        string   `json:"name"`
	Params      []string `json:"params"`
	Description string   `json:"description"`
}

var catalog = map[string]Info{
	ArithmeticMeanName: {
		Name:        ArithmeticMeanName,
		Params:      []string{params.Weights},
		Description: "sum(w*s) / sum(w)",
	},
	GeometricMeanName: {
		Name:        GeometricMeanName,
		Params:      []string{params.Weights},
		Description: "exp(sum(w*ln s) / sum(w)) over scores > 0",
	},
	GeometricMeanWithNegativesSupportName: {
		Name:        GeometricMeanWithNegativesSupportName,
		Params:      []string{params.Weights},
		Description: "geometric mean with scores <= 0 raised to 0.001",
	},
	HarmonicMeanName: {
		Name:        HarmonicMeanName,
		Params:      []string{params.Weights},
		Description: "sum(w) / sum(w/s) over scores > 0",
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
			"provided combination technique is not supported: %s", name).
			WithSuggestion("use one of: arithmetic_mean, geometric_mean, geometric_mean_with_negatives_support, harmonic_mean")
	}
	if err := params.CheckAccepted(name, p, info.Params...); err != nil {
		return nil, err
	}
	weights, err := params.ParseWeights(p)
	if err != nil {
		return nil, err
	}

	w := weighted{weights: weights}
	switch name {
	case ArithmeticMeanName:
		return ArithmeticMean{w}, nil
	case GeometricMeanName:
		return GeometricMean{w}, nil
	case GeometricMeanWithNegativesSupportName:
		return GeometricMeanWithNegativesSupport{w}, nil
	default:
		return HarmonicMean{w}, nil
	}
}

// weighted carries the validated weights shared by every technique.
type weighted struct {
	weights []float64
}

func (w weighted) Weights() []float64 { return w.weights }

func (w weighted) ValidateSubQueryCount(numSubQueries int) error {
	if w.weights == nil {
		return nil
	}
	return params.CheckCount(ferrors.ErrCodeWeightsMismatch, params.Weights, len(w.weights), numSubQueries)
}

// weight returns the weight of sub-query i; 1 when unweighted.
func (w weighted) weight(i int) float64 {
	if w.weights == nil {
		return 1
	}
	if i < len(w.weights) {
		return w.weights[i]
	}
	return 0
}

func (w weighted) describe(name string) string {
	if w.weights == nil {
		return name
	}
	parts := make([]string, len(w.weights))
	for i, v := range w.weights {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprintf("%s, weights [%s]", name, strings.Join(parts, ", "))
}

// Apply combines every document of every shard and records the combined
// value when rec is non-nil. It consumes normalized and returns the fused
// per-shard lists.
func Apply(t Technique, normalized *hits.Normalized, rec *explain.Recorder) (*hits.Combined, error) {
	if normalized.Consumed() {
		return nil, ferrors.New(ferrors.ErrCodeAlreadyProcessed,
			"results were already combined; build a fresh container per request", nil)
	}
	if err := t.ValidateSubQueryCount(normalized.NumSubQueries()); err != nil {
		return nil, err
	}

	description := t.Describe() + " combination of:"
	return normalized.Combine(func(groups []*hits.CompoundResult, n int) ([]hits.ShardResult, error) {
		shards := make([]hits.ShardResult, 0, len(groups))
		for _, g := range groups {
			if g == nil {
				continue
			}

			var order []string
			perDoc := make(map[string][]Score)
			for i, list := range g.SubQueries {
				for _, doc := range list {
					scores, ok := perDoc[doc.ID]
					if !ok {
						scores = make([]Score, n)
						perDoc[doc.ID] = scores
						order = append(order, doc.ID)
					}
					scores[i] = Score{Value: doc.Score, Matched: true}
				}
			}

			fused := make(map[string]float64, len(perDoc))
			for _, id := range order {
				v := t.Combine(perDoc[id])
				fused[id] = v
				if rec != nil {
					rec.RecordCombined(hits.DocumentShardKey{DocID: id, Shard: g.Shard}, v, description)
				}
			}

			for _, list := range g.SubQueries {
				for j := range list {
					list[j].Score = fused[list[j].ID]
				}
			}
			shards = append(shards, hits.NewShardResult(g.Shard, order, fused))
		}
		return shards, nil
	})
}
