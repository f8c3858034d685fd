// Package hits holds the per-shard, per-sub-query result container that the
// normalization and combination stages operate on.
//
// A request moves through three stage values that share one buffer:
//
//	Raw  --normalize-->  Normalized  --combine-->  Combined
//
// Each transition consumes its input, so a container can be normalized and
// combined at most once.
package hits

import (
	"fmt"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
)

// SearchShard identifies the shard a group of hits came from.
// It is comparable and used directly as a map key.
type SearchShard struct {
	Index  string `yaml:"index" json:"index"`
	Shard  int    `yaml:"shard" json:"shard"`
	NodeID string `yaml:"node" json:"node"`
}

// String returns "[index][shard][node]".
func (s SearchShard) String() string {
	return fmt.Sprintf("[%s][%d][%s]", s.Index, s.Shard, s.NodeID)
}

// ScoredDocument is one hit. Score is rewritten in place by normalization
// and again by combination.
type ScoredDocument struct {
	ID    string  `yaml:"id" json:"id"`
	Score float64 `yaml:"score" json:"score"`
}

// SubQueryHitList is the ordered hit list of one sub-query within one shard.
type SubQueryHitList []ScoredDocument

// CompoundResult groups one shard's hit lists, indexed by sub-query ordinal.
// Once normalized, a group cannot be wrapped by NewRaw again.
type CompoundResult struct {
	Shard      SearchShard       `yaml:"shard" json:"shard"`
	SubQueries []SubQueryHitList `yaml:"sub_queries" json:"sub_queries"`

	processed bool
}

// Processed reports whether the group's scores were already rewritten.
func (g *CompoundResult) Processed() bool { return g != nil && g.processed }

// DocumentShardKey correlates a document across the normalization and
// combination passes.
type DocumentShardKey struct {
	DocID string
	Shard SearchShard
}

// String returns "docID@[index][shard][node]".
func (k DocumentShardKey) String() string {
	return k.DocID + "@" + k.Shard.String()
}

// container is the buffer shared by the stage values of one request.
type container struct {
	groups        []*CompoundResult
	numSubQueries int
}

// Raw is a request's hits before normalization.
type Raw struct {
	c *container
}

// NewRaw wraps groups for processing. Nil groups are absent shards. Every
// present group must carry exactly numSubQueries hit lists.
func NewRaw(groups []*CompoundResult, numSubQueries int) (*Raw, error) {
	if numSubQueries <= 0 {
		return nil, ferrors.Newf(ferrors.ErrCodeInvalidInput,
			"number of sub-queries must be positive, got %d", numSubQueries)
	}
	for i, g := range groups {
		if g == nil {
			continue
		}
		if g.processed {
			return nil, ferrors.Newf(ferrors.ErrCodeAlreadyProcessed,
				"shard group %d %s was already processed; build a fresh container per request",
				i, g.Shard).
				WithDetail("shard", g.Shard.String())
		}
		if len(g.SubQueries) != numSubQueries {
			return nil, ferrors.Newf(ferrors.ErrCodeSubQueryCountMismatch,
				"shard group %d %s has %d sub-query results, expected %d",
				i, g.Shard, len(g.SubQueries), numSubQueries).
				WithDetail("shard", g.Shard.String())
		}
	}
	return &Raw{c: &container{groups: groups, numSubQueries: numSubQueries}}, nil
}

// NumSubQueries returns the fixed sub-query count of the request.
func (r *Raw) NumSubQueries() int { return r.c.numSubQueries }

// Groups returns the underlying groups, including nil entries.
func (r *Raw) Groups() []*CompoundResult { return r.c.groups }

// Consumed reports whether the value was already handed to the next stage.
func (r *Raw) Consumed() bool { return r == nil || r.c == nil }

// Normalize hands the buffer to fn for in-place rewriting and returns the
// normalized stage. Neither the Raw value nor its groups can be used again
// afterwards, even when fn fails.
func (r *Raw) Normalize(fn func(groups []*CompoundResult, numSubQueries int) error) (*Normalized, error) {
	if r.Consumed() {
		return nil, ferrors.New(ferrors.ErrCodeAlreadyProcessed,
			"results were already normalized; build a fresh container per request", nil)
	}
	c := r.c
	r.c = nil
	for _, g := range c.groups {
		if g != nil {
			g.processed = true
		}
	}
	if err := fn(c.groups, c.numSubQueries); err != nil {
		return nil, err
	}
	return &Normalized{c: c}, nil
}

// Normalized is a request's hits after normalization.
type Normalized struct {
	c *container
}

// NumSubQueries returns the fixed sub-query count of the request.
func (n *Normalized) NumSubQueries() int { return n.c.numSubQueries }

// Groups returns the underlying groups, including nil entries.
func (n *Normalized) Groups() []*CompoundResult { return n.c.groups }

// Consumed reports whether the value was already handed to the next stage.
func (n *Normalized) Consumed() bool { return n == nil || n.c == nil }

// Combine hands the buffer to fn, which folds every document's sub-query
// scores into one value, and returns the combined stage.
func (n *Normalized) Combine(fn func(groups []*CompoundResult, numSubQueries int) ([]ShardResult, error)) (*Combined, error) {
	if n.Consumed() {
		return nil, ferrors.New(ferrors.ErrCodeAlreadyProcessed,
			"results were already combined; build a fresh container per request", nil)
	}
	c := n.c
	n.c = nil
	shards, err := fn(c.groups, c.numSubQueries)
	if err != nil {
		return nil, err
	}
	return &Combined{c: c, shards: shards}, nil
}

// ShardResult is one shard's fused list: every document once, ordered by
// combined score descending.
type ShardResult struct {
	Shard SearchShard
	Docs  []ScoredDocument
}

// Combined is a request's hits after combination.
type Combined struct {
	c      *container
	shards []ShardResult
}

// Groups returns the underlying groups. Every hit score now holds its
// document's combined value.
func (c *Combined) Groups() []*CompoundResult { return c.c.groups }

// NumSubQueries returns the fixed sub-query count of the request.
func (c *Combined) NumSubQueries() int { return c.c.numSubQueries }

// Shards returns the per-shard fused lists in group order.
func (c *Combined) Shards() []ShardResult { return c.shards }
