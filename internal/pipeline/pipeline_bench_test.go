package pipeline

import (
	"fmt"
	"testing"

	"github.com/Aman-CERP/scorefusion/internal/combine"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/normalize"
)

// benchGroups builds shards x 2 sub-queries with docs hits each; the second
// sub-query matches every other document.
func benchGroups(shards, docs int) []*hits.CompoundResult {
	groups := make([]*hits.CompoundResult, shards)
	for s := range groups {
		lexical := make(hits.SubQueryHitList, docs)
		semantic := make(hits.SubQueryHitList, 0, docs/2)
		for i := range docs {
			id := fmt.Sprintf("doc-%d-%d", s, i)
			lexical[i] = hits.ScoredDocument{ID: id, Score: float64(docs - i)}
			if i%2 == 0 {
				semantic = append(semantic, hits.ScoredDocument{ID: id, Score: 0.9 - float64(i)*0.0001})
			}
		}
		groups[s] = &hits.CompoundResult{
			Shard:      hits.SearchShard{Index: "bench", Shard: s, NodeID: "n"},
			SubQueries: []hits.SubQueryHitList{lexical, semantic},
		}
	}
	return groups
}

func benchmarkProcess(b *testing.B, cfg Config, shards, docs int, explain bool) {
	p, err := New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		groups := benchGroups(shards, docs)
		b.StartTimer()
		if _, err := p.Process(Request{Groups: groups, NumSubQueries: 2, Explain: explain, Size: 10}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProcess_MinMaxArithmetic_5x100(b *testing.B) {
	benchmarkProcess(b, DefaultConfig(), 5, 100, false)
}

func BenchmarkProcess_MinMaxArithmetic_5x1000(b *testing.B) {
	benchmarkProcess(b, DefaultConfig(), 5, 1000, false)
}

func BenchmarkProcess_ZScore_5x1000(b *testing.B) {
	cfg := Config{
		Normalization: TechniqueConfig{Technique: normalize.ZScoreName},
		Combination:   TechniqueConfig{Technique: combine.ArithmeticMeanName},
	}
	benchmarkProcess(b, cfg, 5, 1000, false)
}

func BenchmarkProcess_RobustZScore_5x1000(b *testing.B) {
	cfg := Config{
		Normalization: TechniqueConfig{Technique: normalize.RobustZScoreName},
		Combination:   TechniqueConfig{Technique: combine.ArithmeticMeanName},
	}
	benchmarkProcess(b, cfg, 5, 1000, false)
}

func BenchmarkProcess_Explain_5x1000(b *testing.B) {
	benchmarkProcess(b, DefaultConfig(), 5, 1000, true)
}
