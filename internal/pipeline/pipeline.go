// Package pipeline sequences normalization, combination and explanation
// for one search response.
//
// A Pipeline is built once from configuration, validated up front, and then
// reused for any number of requests. It holds no per-request state and is
// safe for concurrent use.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/scorefusion/internal/combine"
	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/explain"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/normalize"
	"github.com/Aman-CERP/scorefusion/internal/stats"
)

// TechniqueConfig selects a technique and its parameters.
type TechniqueConfig struct {
	Technique  string         `yaml:"technique" json:"technique"`
	Parameters map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Config selects the normalization and combination techniques.
type Config struct {
	Normalization TechniqueConfig `yaml:"normalization" json:"normalization"`
	Combination   TechniqueConfig `yaml:"combination" json:"combination"`
}

// DefaultConfig returns min_max normalization with an unweighted arithmetic
// mean.
func DefaultConfig() Config {
	return Config{
		Normalization: TechniqueConfig{Technique: normalize.MinMaxName},
		Combination:   TechniqueConfig{Technique: combine.ArithmeticMeanName},
	}
}

// Pipeline is a validated normalization + combination pair.
type Pipeline struct {
	config        Config
	normalization normalize.Technique
	combination   combine.Technique
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New resolves both techniques and rejects invalid combinations before any
// request is processed.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{config: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	norm, err := normalize.New(cfg.Normalization.Technique, cfg.Normalization.Parameters)
	if err != nil {
		return nil, err
	}
	comb, err := combine.New(cfg.Combination.Technique, cfg.Combination.Parameters)
	if err != nil {
		return nil, err
	}

	if normalize.IsZScore(norm) && comb.Name() != combine.ArithmeticMeanName {
		return nil, ferrors.Newf(ferrors.ErrCodeIncompatibleTechniques,
			"%s normalization technique cannot be used with %s combination technique",
			norm.Name(), comb.Name()).
			WithSuggestion("use arithmetic_mean with " + norm.Name())
	}

	p.normalization = norm
	p.combination = comb
	return p, nil
}

// Normalization returns the resolved normalization technique.
func (p *Pipeline) Normalization() normalize.Technique { return p.normalization }

// Combination returns the resolved combination technique.
func (p *Pipeline) Combination() combine.Technique { return p.combination }

// Config returns the configuration the pipeline was built from.
func (p *Pipeline) Config() Config { return p.config }

// String returns "normalization -> combination".
func (p *Pipeline) String() string {
	return fmt.Sprintf("%s -> %s", p.normalization.Describe(), p.combination.Describe())
}

// Request is one search response's raw hits.
type Request struct {
	// Groups holds one entry per shard group; nil entries are absent shards.
	Groups []*hits.CompoundResult

	// NumSubQueries is the fixed sub-query count of the request.
	NumSubQueries int

	// Explain requests explanations for the ranked documents.
	Explain bool

	// Size caps the ranked list. Zero or negative keeps every document.
	Size int
}

// Response carries the fused results of a request.
type Response struct {
	// Combined is the consumed container; every hit score holds its
	// document's combined value.
	Combined *hits.Combined

	// Ranked is the request-wide ordering, truncated to Request.Size.
	Ranked []hits.RankedDoc

	// Explanations covers exactly the documents in Ranked when explain was
	// requested.
	Explanations map[hits.DocumentShardKey]explain.Combined

	// QueryLevel holds the raw per-sub-query explanation of each explained
	// document.
	QueryLevel map[hits.DocumentShardKey]*explain.Explanation
}

// Explain renders the explanation tree of one ranked document.
func (r *Response) Explain(doc hits.RankedDoc) (*explain.Explanation, error) {
	c, ok := r.Explanations[doc.Key]
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeExplanationMissing,
			"no explanation recorded for document", nil).
			WithDetail("document", doc.Key.String())
	}
	return explain.Render(doc.Score, r.QueryLevel[doc.Key], c)
}

// Process normalizes and combines the request's hits in place.
//
// Sub-query count checks run before any score is mutated. The request's
// groups are consumed: they must not be passed to Process again.
func (p *Pipeline) Process(req Request) (*Response, error) {
	raw, err := hits.NewRaw(req.Groups, req.NumSubQueries)
	if err != nil {
		return nil, err
	}
	n := raw.NumSubQueries()
	if err := p.normalization.ValidateSubQueryCount(n); err != nil {
		return nil, err
	}
	if err := p.combination.ValidateSubQueryCount(n); err != nil {
		return nil, err
	}

	snaps := stats.Aggregate(raw.Groups(), n)
	p.logStats(snaps)

	var rec *explain.Recorder
	if req.Explain {
		rec = explain.NewRecorder(n)
	}

	p.logger.Debug("normalizing",
		slog.String("technique", p.normalization.Describe()),
		slog.Int("sub_queries", n),
		slog.Int("groups", len(req.Groups)))
	normalized, err := p.normalization.Normalize(raw, snaps, rec)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("combining", slog.String("technique", p.combination.Describe()))
	combined, err := combine.Apply(p.combination, normalized, rec)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Combined: combined,
		Ranked:   combined.Top(req.Size),
	}
	if rec == nil {
		return resp, nil
	}

	keys := make([]hits.DocumentShardKey, len(resp.Ranked))
	for i, r := range resp.Ranked {
		keys[i] = r.Key
	}
	resp.Explanations, err = explain.Build(rec, keys)
	if err != nil {
		return nil, err
	}
	resp.QueryLevel = make(map[hits.DocumentShardKey]*explain.Explanation, len(keys))
	for _, k := range keys {
		resp.QueryLevel[k] = rec.QueryLevel(k)
	}

	p.logger.Debug("explained", slog.Int("documents", len(keys)))
	return resp, nil
}

func (p *Pipeline) logStats(snaps []stats.Snapshot) {
	for i, s := range snaps {
		switch {
		case s.Empty():
			p.logger.Debug("sub-query has no scores", slog.Int("sub_query", i))
		case s.StdDev == 0:
			p.logger.Debug("sub-query has zero variance",
				slog.Int("sub_query", i),
				slog.Int("count", s.Count),
				slog.Float64("score", s.Max))
		case s.MAD == 0:
			p.logger.Debug("sub-query has zero MAD",
				slog.Int("sub_query", i),
				slog.Float64("median", s.Median))
		}
	}
}
