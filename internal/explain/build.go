package explain

import (
	"math"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/hits"
)

// Error messages surfaced to callers verbatim.
const (
	msgMismatch      = "mismatch in number of query level explanations and normalization explanations"
	msgNullDetail    = "normalized score details must not be null"
	msgNoCombination = "combination details must not be null"
)

// Build joins the recorded normalization and combination entries of the
// given documents. Only keys are explained, so callers pass the documents
// that survive to the final result set.
func Build(r *Recorder, keys []hits.DocumentShardKey) (map[hits.DocumentShardKey]Combined, error) {
	out := make(map[hits.DocumentShardKey]Combined, len(keys))
	for _, key := range keys {
		comb, ok := r.combined[key]
		if !ok || comb == nil {
			return nil, ferrors.New(ferrors.ErrCodeExplanationMissing, msgNoCombination, nil).
				WithDetail("document", key.String())
		}
		out[key] = Combined{
			Normalization: r.normalizationDetail(key),
			Combination:   Detail{Entries: []*ScoreDetail{comb}},
		}
	}
	return out, nil
}

// Render attaches a document's combined explanation to the query-level
// explanation the upstream stage produced for the same hit.
//
// The top value is the hit score, or 0 when the score is NaN. Each non-zero
// normalization entry becomes a child wrapping the matching query-level
// child; zero-valued entries are omitted.
func Render(hitScore float64, queryLevel *Explanation, combined Combined) (*Explanation, error) {
	var upstream []*Explanation
	if queryLevel != nil {
		upstream = queryLevel.Details
	}

	entries := combined.Normalization.Entries
	if len(upstream) != len(entries) {
		return nil, ferrors.New(ferrors.ErrCodeExplanationMismatch, msgMismatch, nil)
	}

	value := hitScore
	if math.IsNaN(value) {
		value = 0
	}

	description := ""
	if len(combined.Combination.Entries) > 0 && combined.Combination.Entries[0] != nil {
		description = combined.Combination.Entries[0].Description
	}

	top := &Explanation{Value: value, Description: description, Details: []*Explanation{}}
	for i, entry := range entries {
		if entry == nil {
			return nil, ferrors.New(ferrors.ErrCodeExplanationMissing, msgNullDetail, nil)
		}
		if entry.Value == 0 {
			continue
		}
		child := &Explanation{Value: entry.Value, Description: entry.Description}
		if upstream[i] != nil {
			child.Details = []*Explanation{upstream[i]}
		}
		top.Details = append(top.Details, child)
	}
	return top, nil
}
