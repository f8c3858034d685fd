// Package explain records how each document's score was derived and renders
// the result as an explanation tree.
//
// The recorder captures the values the normalization and combination
// techniques actually write, so explanations never drift from the scores a
// caller sees.
package explain

import (
	"fmt"
	"math"
	"strings"

	"github.com/Aman-CERP/scorefusion/internal/hits"
)

// ScoreDetail is one (value, description) pair.
type ScoreDetail struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// Detail is the ordered list of entries one stage produced for a document.
// Normalization details carry one entry per sub-query; combination details
// carry exactly one entry. A nil entry is a data-consistency error.
type Detail struct {
	Entries []*ScoreDetail `json:"entries"`
}

// Combined pairs the normalization and combination details of a document.
type Combined struct {
	Normalization Detail `json:"normalization"`
	Combination   Detail `json:"combination"`
}

// Explanation is a rendered explanation tree node.
type Explanation struct {
	Value       float64        `json:"value"`
	Description string         `json:"description"`
	Details     []*Explanation `json:"details,omitempty"`
}

// String renders the tree one node per line, children indented two spaces.
func (e *Explanation) String() string {
	var sb strings.Builder
	e.write(&sb, 0)
	return sb.String()
}

func (e *Explanation) write(sb *strings.Builder, depth int) {
	if e == nil {
		return
	}
	fmt.Fprintf(sb, "%s%s = %s\n", strings.Repeat("  ", depth), FormatValue(e.Value), e.Description)
	for _, d := range e.Details {
		d.write(sb, depth+1)
	}
}

// FormatValue prints a score the way explanation trees show it.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}

// Recorder collects explanation entries for one request. It is not safe for
// concurrent use; create one per request.
type Recorder struct {
	numSubQueries int
	raw           map[hits.DocumentShardKey][]*ScoreDetail
	normalized    map[hits.DocumentShardKey][]*ScoreDetail
	combined      map[hits.DocumentShardKey]*ScoreDetail
}

// NewRecorder creates a recorder for a request with numSubQueries slots per
// document.
func NewRecorder(numSubQueries int) *Recorder {
	return &Recorder{
		numSubQueries: numSubQueries,
		raw:           make(map[hits.DocumentShardKey][]*ScoreDetail),
		normalized:    make(map[hits.DocumentShardKey][]*ScoreDetail),
		combined:      make(map[hits.DocumentShardKey]*ScoreDetail),
	}
}

// NumSubQueries returns the slot count per document.
func (r *Recorder) NumSubQueries() int { return r.numSubQueries }

func (r *Recorder) slots(m map[hits.DocumentShardKey][]*ScoreDetail, key hits.DocumentShardKey) []*ScoreDetail {
	s, ok := m[key]
	if !ok {
		s = make([]*ScoreDetail, r.numSubQueries)
		m[key] = s
	}
	return s
}

// RecordRaw records the score a sub-query produced before normalization.
// NaN is recorded as 0.
func (r *Recorder) RecordRaw(key hits.DocumentShardKey, subQuery int, score float64) {
	if subQuery < 0 || subQuery >= r.numSubQueries {
		return
	}
	if math.IsNaN(score) {
		score = 0
	}
	r.slots(r.raw, key)[subQuery] = &ScoreDetail{
		Value:       score,
		Description: fmt.Sprintf("sub-query %d raw score", subQuery),
	}
}

// RecordNormalized records the value a normalization technique wrote.
func (r *Recorder) RecordNormalized(key hits.DocumentShardKey, subQuery int, value float64, description string) {
	if subQuery < 0 || subQuery >= r.numSubQueries {
		return
	}
	r.slots(r.normalized, key)[subQuery] = &ScoreDetail{Value: value, Description: description}
}

// RecordCombined records the final value a combination technique wrote.
func (r *Recorder) RecordCombined(key hits.DocumentShardKey, value float64, description string) {
	r.combined[key] = &ScoreDetail{Value: value, Description: description}
}

// Finalize returns the normalization detail of every recorded document.
// Slots of sub-queries a document did not match hold a zero-valued entry.
func (r *Recorder) Finalize() map[hits.DocumentShardKey]Detail {
	out := make(map[hits.DocumentShardKey]Detail, len(r.normalized))
	for key := range r.normalized {
		out[key] = r.normalizationDetail(key)
	}
	return out
}

func (r *Recorder) normalizationDetail(key hits.DocumentShardKey) Detail {
	recorded := r.normalized[key]
	entries := make([]*ScoreDetail, r.numSubQueries)
	for i := range entries {
		if i < len(recorded) && recorded[i] != nil {
			entries[i] = recorded[i]
			continue
		}
		entries[i] = &ScoreDetail{Value: 0, Description: fmt.Sprintf("sub-query %d not matched", i)}
	}
	return Detail{Entries: entries}
}

// QueryLevel returns the per-sub-query raw score explanation of a document,
// one child per sub-query, in the shape the upstream merge stage attaches to
// a hit. Unmatched sub-queries appear as zero-valued children.
func (r *Recorder) QueryLevel(key hits.DocumentShardKey) *Explanation {
	recorded := r.raw[key]
	top := &Explanation{Description: "raw scores of:", Details: make([]*Explanation, r.numSubQueries)}
	for i := range top.Details {
		if i < len(recorded) && recorded[i] != nil {
			top.Details[i] = &Explanation{Value: recorded[i].Value, Description: recorded[i].Description}
			top.Value += recorded[i].Value
			continue
		}
		top.Details[i] = &Explanation{Description: fmt.Sprintf("sub-query %d no match", i)}
	}
	return top
}
