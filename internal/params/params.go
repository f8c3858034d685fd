// Package params validates and parses technique parameter maps.
//
// Parameter maps arrive either from YAML/JSON documents (where lists are
// []any and numbers may be float64, int or numeric strings) or from Go
// callers using typed slices. Every helper here is a pure function.
package params

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
)

// Parameter names.
const (
	Weights     = "weights"
	LowerBounds = "lower_bounds"
	UpperBounds = "upper_bounds"
)

// CheckAccepted rejects any parameter name not listed in accepted.
func CheckAccepted(technique string, params map[string]any, accepted ...string) error {
	var unknown []string
	for name := range params {
		if !contains(accepted, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	err := ferrors.Newf(ferrors.ErrCodeUnsupportedParameter,
		"unrecognized parameters in %s technique: %s", technique, strings.Join(unknown, ", ")).
		WithDetail("technique", technique)
	if len(accepted) == 0 {
		return err.WithSuggestion(technique + " takes no parameters")
	}
	return err.WithSuggestion("accepted parameters: " + strings.Join(accepted, ", "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ParseWeights returns the "weights" parameter, or nil when absent.
// Every weight must be finite and non-negative.
func ParseWeights(params map[string]any) ([]float64, error) {
	raw, ok := params[Weights]
	if !ok || raw == nil {
		return nil, nil
	}

	items, err := toList(raw)
	if err != nil {
		return nil, invalid(Weights, err.Error())
	}

	weights := make([]float64, len(items))
	for i, item := range items {
		w, err := ToFloat(item)
		if err != nil {
			return nil, invalid(Weights, fmt.Sprintf("weight %d: %v", i, err))
		}
		if w < 0 {
			return nil, invalid(Weights, fmt.Sprintf("weight %d is negative: %v", i, w))
		}
		weights[i] = w
	}
	return weights, nil
}

// CheckCount verifies a per-sub-query parameter list has one entry per
// sub-query. Absent lists (count < 0) always pass.
func CheckCount(code, name string, count, numSubQueries int) error {
	if count < 0 || count == numSubQueries {
		return nil
	}
	return ferrors.Newf(code,
		"number of %s [%d] must match number of sub-queries [%d]", name, count, numSubQueries).
		WithDetail("parameter", name)
}

// ToFloat converts a decoded parameter value to a finite float64.
func ToFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("not a number: %v (%T)", v, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be finite, got %v", f)
	}
	return f, nil
}

// toList accepts the list shapes produced by YAML/JSON decoding and by
// typed Go callers.
func toList(v any) ([]any, error) {
	switch l := v.(type) {
	case []any:
		return l, nil
	case []float64:
		out := make([]any, len(l))
		for i, f := range l {
			out[i] = f
		}
		return out, nil
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}

func invalid(name, msg string) *ferrors.FusionError {
	return ferrors.Newf(ferrors.ErrCodeInvalidParameter, "invalid %s: %s", name, msg).
		WithDetail("parameter", name)
}
