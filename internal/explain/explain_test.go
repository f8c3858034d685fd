package explain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/hits"
)

var (
	shard = hits.SearchShard{Index: "index", Shard: 0, NodeID: "node1"}
	docA  = hits.DocumentShardKey{DocID: "a", Shard: shard}
	docB  = hits.DocumentShardKey{DocID: "b", Shard: shard}
)

func TestRecorder_FinalizeFillsUnmatchedSlots(t *testing.T) {
	// Given: doc a matched sub-queries 0 and 2 of 3
	r := NewRecorder(3)
	r.RecordNormalized(docA, 0, 0.5, "min_max normalization of:")
	r.RecordNormalized(docA, 2, 1.0, "min_max normalization of:")
	r.RecordNormalized(docA, 7, 1.0, "out of range is dropped")

	// When: finalizing
	details := r.Finalize()

	// Then: every slot holds an entry, the missing one zero-valued
	require.Contains(t, details, docA)
	entries := details[docA].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, 0.5, entries[0].Value)
	assert.Equal(t, 0.0, entries[1].Value)
	assert.Equal(t, 1.0, entries[2].Value)
	for _, e := range entries {
		assert.NotNil(t, e)
	}
}

func TestBuild_OnlyRequestedKeys(t *testing.T) {
	r := NewRecorder(1)
	r.RecordNormalized(docA, 0, 1.0, "l2 normalization of:")
	r.RecordNormalized(docB, 0, 0.2, "l2 normalization of:")
	r.RecordCombined(docA, 1.0, "arithmetic_mean combination of:")
	r.RecordCombined(docB, 0.2, "arithmetic_mean combination of:")

	out, err := Build(r, []hits.DocumentShardKey{docA})

	require.NoError(t, err)
	require.Len(t, out, 1)
	c := out[docA]
	require.Len(t, c.Combination.Entries, 1)
	assert.Equal(t, "arithmetic_mean combination of:", c.Combination.Entries[0].Description)
	assert.Equal(t, 1.0, c.Normalization.Entries[0].Value)
}

func TestBuild_MissingCombination(t *testing.T) {
	r := NewRecorder(1)
	r.RecordNormalized(docA, 0, 1.0, "l2 normalization of:")

	_, err := Build(r, []hits.DocumentShardKey{docA})

	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrExplanationMissing)
}

func TestRecorder_QueryLevel(t *testing.T) {
	r := NewRecorder(2)
	r.RecordRaw(docA, 1, 3.5)

	q := r.QueryLevel(docA)

	require.Len(t, q.Details, 2)
	assert.Equal(t, 0.0, q.Details[0].Value)
	assert.Equal(t, 3.5, q.Details[1].Value)
	assert.Equal(t, 3.5, q.Value)
}

func TestRecorder_NaNRawScore(t *testing.T) {
	// Given: a NaN raw score and its normalized value
	r := NewRecorder(2)
	r.RecordRaw(docA, 0, math.NaN())
	r.RecordRaw(docA, 1, 4)
	r.RecordNormalized(docA, 0, 0, "min_max normalization of:")
	r.RecordNormalized(docA, 1, 1, "min_max normalization of:")
	r.RecordCombined(docA, 0.5, "arithmetic_mean combination of:")

	// When: building and rendering the explanation
	q := r.QueryLevel(docA)
	built, err := Build(r, []hits.DocumentShardKey{docA})
	require.NoError(t, err)
	e, err := Render(0.5, q, built[docA])
	require.NoError(t, err)

	// Then: NaN shows as 0 and the tree encodes as JSON
	assert.Equal(t, 0.0, q.Details[0].Value)
	assert.Equal(t, 4.0, q.Value)
	_, err = json.Marshal(e)
	assert.NoError(t, err)
	_, err = json.Marshal(q)
	assert.NoError(t, err)
}

func queryLevel(values ...float64) *Explanation {
	e := &Explanation{Value: 1, Description: "original explanation"}
	for _, v := range values {
		e.Details = append(e.Details, &Explanation{Value: v, Description: "query level"})
	}
	return e
}

func combined(combinationValue float64, normalized ...*ScoreDetail) Combined {
	return Combined{
		Normalization: Detail{Entries: normalized},
		Combination: Detail{Entries: []*ScoreDetail{
			{Value: combinationValue, Description: "arithmetic_mean combination of:"},
		}},
	}
}

func TestRender_OmitsZeroEntries(t *testing.T) {
	// Given: three normalization entries of which one is non-zero
	c := combined(0.8,
		&ScoreDetail{Value: 0, Description: "normalized zero score"},
		&ScoreDetail{Value: 0.8, Description: "normalized non-zero score"},
		&ScoreDetail{Value: 0, Description: "normalized zero score 2"},
	)

	// When: rendering
	e, err := Render(1.0, queryLevel(0, 0.5, 0), c)

	// Then: only the non-zero entry is a child, wrapping query-level detail 1
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.Value)
	assert.Equal(t, "arithmetic_mean combination of:", e.Description)
	require.Len(t, e.Details, 1)
	assert.InDelta(t, 0.8, e.Details[0].Value, 0.001)
	assert.Equal(t, "normalized non-zero score", e.Details[0].Description)
	require.Len(t, e.Details[0].Details, 1)
	assert.Equal(t, 0.5, e.Details[0].Details[0].Value)
}

func TestRender_AllZeroScores(t *testing.T) {
	c := combined(0,
		&ScoreDetail{Value: 0, Description: "normalized zero 1"},
		&ScoreDetail{Value: 0, Description: "normalized zero 2"},
	)

	e, err := Render(0, queryLevel(0, 0), c)

	require.NoError(t, err)
	assert.Equal(t, 0.0, e.Value)
	assert.Empty(t, e.Details)
}

func TestRender_NaNScoreIsZero(t *testing.T) {
	c := combined(math.NaN(), &ScoreDetail{Value: 1, Description: "min_max normalization of:"})

	e, err := Render(math.NaN(), queryLevel(1), c)

	require.NoError(t, err)
	assert.Equal(t, 0.0, e.Value)
}

func TestRender_LengthMismatch(t *testing.T) {
	c := combined(0.5,
		&ScoreDetail{Value: 0.5, Description: "norm1"},
		&ScoreDetail{Value: 0.3, Description: "norm2"},
	)

	_, err := Render(1.0, queryLevel(0.5), c)

	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrExplanationMismatch)
	assert.True(t, ferrors.IsFatal(err))
	assert.Contains(t, err.Error(), "mismatch in number of query level explanations and normalization explanations")
}

func TestRender_NilEntry(t *testing.T) {
	c := combined(0.5, nil)

	_, err := Render(1.0, queryLevel(0.5), c)

	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrExplanationMissing)
	assert.Contains(t, err.Error(), "normalized score details must not be null")
}

func TestExplanation_String(t *testing.T) {
	e := &Explanation{
		Value:       0.75,
		Description: "arithmetic_mean combination of:",
		Details: []*Explanation{
			{Value: 1, Description: "min_max normalization of:", Details: []*Explanation{
				{Value: 10, Description: "sub-query 0 raw score"},
			}},
		},
	}

	assert.Equal(t,
		"0.7500 = arithmetic_mean combination of:\n"+
			"  1.0000 = min_max normalization of:\n"+
			"    10.0000 = sub-query 0 raw score\n",
		e.String())
	assert.Equal(t, "NaN", FormatValue(math.NaN()))
}
