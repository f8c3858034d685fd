package pipeline

import (
	"bytes"
	"encoding/json"
	"math"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/scorefusion/internal/combine"
	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/normalize"
)

var (
	shard0 = hits.SearchShard{Index: "docs", Shard: 0, NodeID: "n1"}
	shard1 = hits.SearchShard{Index: "docs", Shard: 1, NodeID: "n2"}
)

func cfg(norm, comb string, normParams, combParams map[string]any) Config {
	return Config{
		Normalization: TechniqueConfig{Technique: norm, Parameters: normParams},
		Combination:   TechniqueConfig{Technique: comb, Parameters: combParams},
	}
}

// exampleGroups is the two sub-query example: A = [10, 0], B = [5, 0].
func exampleGroups() []*hits.CompoundResult {
	return []*hits.CompoundResult{{
		Shard: shard0,
		SubQueries: []hits.SubQueryHitList{
			{{ID: "a", Score: 10}, {ID: "b", Score: 0}},
			{{ID: "a", Score: 5}, {ID: "b", Score: 0}},
		},
	}}
}

func TestNew_Default(t *testing.T) {
	p, err := New(DefaultConfig())

	require.NoError(t, err)
	assert.Equal(t, normalize.MinMaxName, p.Normalization().Name())
	assert.Equal(t, combine.ArithmeticMeanName, p.Combination().Name())
	assert.Equal(t, "min_max -> arithmetic_mean", p.String())
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code string
	}{
		{
			name: "unknown normalization",
			cfg:  cfg("rrf", combine.ArithmeticMeanName, nil, nil),
			code: ferrors.ErrCodeUnknownTechnique,
		},
		{
			name: "unknown combination",
			cfg:  cfg(normalize.L2Name, "max", nil, nil),
			code: ferrors.ErrCodeUnknownTechnique,
		},
		{
			name: "unsupported parameter",
			cfg:  cfg(normalize.L2Name, combine.ArithmeticMeanName, map[string]any{"weights": []float64{1}}, nil),
			code: ferrors.ErrCodeUnsupportedParameter,
		},
		{
			name: "z_score with geometric mean",
			cfg:  cfg(normalize.ZScoreName, combine.GeometricMeanName, nil, nil),
			code: ferrors.ErrCodeIncompatibleTechniques,
		},
		{
			name: "robust z_score with harmonic mean",
			cfg:  cfg(normalize.RobustZScoreName, combine.HarmonicMeanName, nil, nil),
			code: ferrors.ErrCodeIncompatibleTechniques,
		},
		{
			name: "z_score with negatives-tolerant geometric mean",
			cfg:  cfg(normalize.ZScoreName, combine.GeometricMeanWithNegativesSupportName, nil, nil),
			code: ferrors.ErrCodeIncompatibleTechniques,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)

			require.Error(t, err)
			assert.Equal(t, tt.code, ferrors.GetCode(err))
		})
	}
}

func TestNew_ZScoreWithArithmeticMean(t *testing.T) {
	_, err := New(cfg(normalize.ZScoreName, combine.ArithmeticMeanName, nil, nil))
	assert.NoError(t, err)
}

func TestProcess_EndToEnd(t *testing.T) {
	// Given: the default pipeline and A = [10, 0], B = [5, 0]
	p, err := New(DefaultConfig())
	require.NoError(t, err)
	groups := exampleGroups()

	// When: processing
	resp, err := p.Process(Request{Groups: groups, NumSubQueries: 2})

	// Then: final scores are [1.0, 0.0]
	require.NoError(t, err)
	require.Len(t, resp.Ranked, 2)
	assert.Equal(t, "a", resp.Ranked[0].Key.DocID)
	assert.Equal(t, 1.0, resp.Ranked[0].Score)
	assert.Equal(t, "b", resp.Ranked[1].Key.DocID)
	assert.Equal(t, 0.0, resp.Ranked[1].Score)
	assert.Nil(t, resp.Explanations)

	// And: the caller's hits were rewritten in place
	assert.Equal(t, 1.0, groups[0].SubQueries[0][0].Score)
	assert.Equal(t, 0.0, groups[0].SubQueries[1][1].Score)
}

func TestProcess_SameRequestTwice(t *testing.T) {
	// Given: a z_score pipeline and one request
	p, err := New(cfg(normalize.ZScoreName, combine.ArithmeticMeanName, nil, nil))
	require.NoError(t, err)
	req := Request{
		Groups: []*hits.CompoundResult{{
			Shard:      shard0,
			SubQueries: []hits.SubQueryHitList{{{ID: "a", Score: 10}, {ID: "b", Score: 5}, {ID: "c", Score: 1}}},
		}},
		NumSubQueries: 1,
	}
	first, err := p.Process(req)
	require.NoError(t, err)
	fused := req.Groups[0].SubQueries[0][0].Score

	// When: processing the same request again
	_, err = p.Process(req)

	// Then: it is refused and the fused scores are untouched
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrAlreadyProcessed)
	assert.Equal(t, fused, req.Groups[0].SubQueries[0][0].Score)
	assert.Equal(t, fused, first.Ranked[0].Score)
}

func TestProcess_RetryAfterValidationError(t *testing.T) {
	// Given: a request rejected before any score was rewritten
	groups := exampleGroups()
	weighted, err := New(cfg(normalize.MinMaxName, combine.ArithmeticMeanName, nil,
		map[string]any{"weights": []float64{1, 1, 1}}))
	require.NoError(t, err)
	_, err = weighted.Process(Request{Groups: groups, NumSubQueries: 2})
	require.ErrorIs(t, err, ferrors.ErrWeightsMismatch)

	// When: processing the same groups with a matching pipeline
	p, err := New(DefaultConfig())
	require.NoError(t, err)
	resp, err := p.Process(Request{Groups: groups, NumSubQueries: 2})

	// Then: it succeeds
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Ranked[0].Key.DocID)
}

func TestProcess_WeightsMismatchBeforeMutation(t *testing.T) {
	p, err := New(cfg(normalize.MinMaxName, combine.ArithmeticMeanName, nil,
		map[string]any{"weights": []float64{0.2, 0.3, 0.5}}))
	require.NoError(t, err)
	groups := exampleGroups()

	_, err = p.Process(Request{Groups: groups, NumSubQueries: 2})

	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrWeightsMismatch)
	assert.Equal(t, 10.0, groups[0].SubQueries[0][0].Score)
}

func TestProcess_BoundsMismatchBeforeMutation(t *testing.T) {
	p, err := New(cfg(normalize.MinMaxName, combine.ArithmeticMeanName,
		map[string]any{"lower_bounds": []any{map[string]any{"mode": "clip"}}}, nil))
	require.NoError(t, err)
	groups := exampleGroups()

	_, err = p.Process(Request{Groups: groups, NumSubQueries: 2})

	assert.ErrorIs(t, err, ferrors.ErrBoundsMismatch)
	assert.Equal(t, 10.0, groups[0].SubQueries[0][0].Score)
}

func TestProcess_SubQueryCountMismatch(t *testing.T) {
	p, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = p.Process(Request{Groups: exampleGroups(), NumSubQueries: 3})

	assert.ErrorIs(t, err, ferrors.ErrSubQueryCountMismatch)
}

func TestProcess_ExplainTopDocumentsOnly(t *testing.T) {
	// Given: three docs across two shards and a size of 2
	p, err := New(cfg(normalize.MinMaxName, combine.ArithmeticMeanName, nil,
		map[string]any{"weights": []any{0.4, 0.6}}))
	require.NoError(t, err)
	groups := []*hits.CompoundResult{
		{Shard: shard0, SubQueries: []hits.SubQueryHitList{
			{{ID: "a", Score: 10}, {ID: "b", Score: 4}},
			{{ID: "a", Score: 2}},
		}},
		nil,
		{Shard: shard1, SubQueries: []hits.SubQueryHitList{
			{{ID: "c", Score: 0}},
			{{ID: "c", Score: 6}},
		}},
	}

	// When: processing with explain
	resp, err := p.Process(Request{Groups: groups, NumSubQueries: 2, Explain: true, Size: 2})

	// Then: exactly the ranked documents are explained
	require.NoError(t, err)
	require.Len(t, resp.Ranked, 2)
	assert.Len(t, resp.Explanations, 2)
	for _, r := range resp.Ranked {
		assert.Contains(t, resp.Explanations, r.Key)
	}

	// And: the rendered tree matches the production score
	top := resp.Ranked[0]
	tree, err := resp.Explain(top)
	require.NoError(t, err)
	assert.Equal(t, top.Score, tree.Value)
	assert.Equal(t, "arithmetic_mean, weights [0.4, 0.6] combination of:", tree.Description)
	for _, child := range tree.Details {
		assert.Equal(t, "min_max normalization of:", child.Description)
		require.Len(t, child.Details, 1)
	}

	// And: the combination entry equals the ranked score bit for bit
	assert.Equal(t, top.Score, resp.Explanations[top.Key].Combination.Entries[0].Value)
}

func TestProcess_ExplainZeroScoreDocument(t *testing.T) {
	p, err := New(DefaultConfig())
	require.NoError(t, err)

	resp, err := p.Process(Request{Groups: exampleGroups(), NumSubQueries: 2, Explain: true})
	require.NoError(t, err)

	last := resp.Ranked[len(resp.Ranked)-1]
	require.Equal(t, 0.0, last.Score)
	tree, err := resp.Explain(last)

	require.NoError(t, err)
	assert.Equal(t, 0.0, tree.Value)
	assert.Empty(t, tree.Details)
}

func TestProcess_ExplainUnknownDocument(t *testing.T) {
	p, err := New(DefaultConfig())
	require.NoError(t, err)
	resp, err := p.Process(Request{Groups: exampleGroups(), NumSubQueries: 2})
	require.NoError(t, err)

	_, err = resp.Explain(resp.Ranked[0])

	assert.ErrorIs(t, err, ferrors.ErrExplanationMissing)
}

func TestProcess_AllShardsAbsent(t *testing.T) {
	p, err := New(DefaultConfig())
	require.NoError(t, err)

	resp, err := p.Process(Request{Groups: []*hits.CompoundResult{nil, nil}, NumSubQueries: 2, Explain: true})

	require.NoError(t, err)
	assert.Empty(t, resp.Ranked)
	assert.Empty(t, resp.Explanations)
}

func TestProcess_LogsDegenerateStats(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, err := New(DefaultConfig(), WithLogger(logger))
	require.NoError(t, err)

	groups := []*hits.CompoundResult{{
		Shard:      shard0,
		SubQueries: []hits.SubQueryHitList{{{ID: "a", Score: 3}}, {}},
	}}
	_, err = p.Process(Request{Groups: groups, NumSubQueries: 2})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "sub-query has zero variance")
	assert.Contains(t, buf.String(), "sub-query has no scores")
}

func TestProcess_ConcurrentRequests(t *testing.T) {
	// Given: one shared pipeline
	p, err := New(cfg(normalize.L2Name, combine.HarmonicMeanName, nil, nil))
	require.NoError(t, err)

	// When: processing independent containers concurrently
	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := p.Process(Request{Groups: exampleGroups(), NumSubQueries: 2, Explain: i%2 == 0})
			if err == nil {
				results[i] = resp.Ranked[0].Score
			}
		}(i)
	}
	wg.Wait()

	// Then: every request produced the same result
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Equal(t, 1.0, results[0])
}

func TestCache(t *testing.T) {
	c := NewCache(2)

	a1, err := c.Get(DefaultConfig())
	require.NoError(t, err)
	a2, err := c.Get(DefaultConfig())
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	weighted := cfg(normalize.MinMaxName, combine.ArithmeticMeanName, nil,
		map[string]any{"weights": []any{0.5, 0.5}})
	b, err := c.Get(weighted)
	require.NoError(t, err)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, c.Len())

	_, err = c.Get(cfg(normalize.ZScoreName, combine.HarmonicMeanName, nil, nil))
	assert.ErrorIs(t, err, ferrors.ErrIncompatibleTechniques)
	assert.Equal(t, 2, c.Len())
}

func TestCache_Eviction(t *testing.T) {
	c := NewCache(1)

	first, err := c.Get(DefaultConfig())
	require.NoError(t, err)
	_, err = c.Get(cfg(normalize.L2Name, combine.ArithmeticMeanName, nil, nil))
	require.NoError(t, err)
	again, err := c.Get(DefaultConfig())
	require.NoError(t, err)

	assert.NotSame(t, first, again)
	assert.Equal(t, 1, c.Len())
}

func TestProcess_NaNRawScore(t *testing.T) {
	// Given: a document whose second sub-query score is NaN
	p, err := New(DefaultConfig())
	require.NoError(t, err)
	groups := []*hits.CompoundResult{{
		Shard: shard0,
		SubQueries: []hits.SubQueryHitList{
			{{ID: "a", Score: 10}, {ID: "b", Score: 5}},
			{{ID: "a", Score: math.NaN()}},
		},
	}}

	// When: processing with explanations
	resp, err := p.Process(Request{Groups: groups, NumSubQueries: 2, Explain: true})
	require.NoError(t, err)

	// Then: every fused score is finite and a still ranks first
	for _, r := range resp.Ranked {
		assert.False(t, math.IsNaN(r.Score), r.Key.DocID)
	}
	assert.Equal(t, "a", resp.Ranked[0].Key.DocID)

	// And: the explanation encodes as JSON
	tree, err := resp.Explain(resp.Ranked[0])
	require.NoError(t, err)
	_, err = json.Marshal(tree)
	assert.NoError(t, err)
}
