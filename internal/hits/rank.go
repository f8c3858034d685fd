package hits

import (
	"math"
	"sort"
)

// RankedDoc is one fused document in the request-wide ordering.
type RankedDoc struct {
	Key   DocumentShardKey
	Score float64
}

// Ranked merges every shard's fused list into one ordering.
//
// Priority:
//  1. Higher combined score (NaN sorts last)
//  2. Shard index, shard ordinal, node id
//  3. Lexicographically smaller document id
func (c *Combined) Ranked() []RankedDoc {
	total := 0
	for _, s := range c.shards {
		total += len(s.Docs)
	}
	ranked := make([]RankedDoc, 0, total)
	for _, s := range c.shards {
		for _, d := range s.Docs {
			ranked = append(ranked, RankedDoc{
				Key:   DocumentShardKey{DocID: d.ID, Shard: s.Shard},
				Score: d.Score,
			})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankedLess(ranked[i], ranked[j])
	})
	return ranked
}

// Top returns at most size documents of Ranked. size <= 0 returns all.
func (c *Combined) Top(size int) []RankedDoc {
	ranked := c.Ranked()
	if size <= 0 || len(ranked) <= size {
		return ranked
	}
	return ranked[:size]
}

func rankedLess(a, b RankedDoc) bool {
	aNaN, bNaN := math.IsNaN(a.Score), math.IsNaN(b.Score)
	if aNaN != bNaN {
		return bNaN
	}
	if !aNaN && a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Key.Shard != b.Key.Shard {
		return shardLess(a.Key.Shard, b.Key.Shard)
	}
	return a.Key.DocID < b.Key.DocID
}

func shardLess(a, b SearchShard) bool {
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	if a.Shard != b.Shard {
		return a.Shard < b.Shard
	}
	return a.NodeID < b.NodeID
}

// sortFused orders one shard's fused list by score descending, then id.
func sortFused(docs []ScoredDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		a := RankedDoc{Key: DocumentShardKey{DocID: docs[i].ID}, Score: docs[i].Score}
		b := RankedDoc{Key: DocumentShardKey{DocID: docs[j].ID}, Score: docs[j].Score}
		return rankedLess(a, b)
	})
}

// NewShardResult builds a fused shard list from per-document combined
// scores, in first-seen order before sorting.
func NewShardResult(shard SearchShard, order []string, scores map[string]float64) ShardResult {
	docs := make([]ScoredDocument, 0, len(order))
	for _, id := range order {
		docs = append(docs, ScoredDocument{ID: id, Score: scores[id]})
	}
	sortFused(docs)
	return ShardResult{Shard: shard, Docs: docs}
}
