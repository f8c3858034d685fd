// Package request reads fusion requests from YAML or JSON files.
//
// A request file lists one entry per shard group; a null entry is a shard
// that returned nothing:
//
//	sub_queries: 2
//	size: 10
//	explain: true
//	shards:
//	  - shard: {index: docs, shard: 0, node: n1}
//	    sub_queries:
//	      - [{id: a, score: 10}, {id: b, score: 0}]
//	      - [{id: a, score: 5}]
//	  - null
//	pipeline:          # optional per-request override
//	  normalization: {technique: l2}
//	  combination: {technique: harmonic_mean}
package request

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/pipeline"
)

// File is the on-disk request shape.
type File struct {
	SubQueries int                    `yaml:"sub_queries" json:"sub_queries"`
	Size       int                    `yaml:"size,omitempty" json:"size,omitempty"`
	Explain    bool                   `yaml:"explain,omitempty" json:"explain,omitempty"`
	Shards     []*hits.CompoundResult `yaml:"shards" json:"shards"`

	// Pipeline overrides the configured pipeline for this request only.
	Pipeline *pipeline.Config `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
}

// Load reads and parses the request file at path. JSON files parse too,
// as JSON is valid YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.New(ferrors.ErrCodeFileNotFound, "request file not found: "+path, err)
		}
		return nil, ferrors.IOError("failed to read request file "+path, err)
	}
	f, err := Parse(data)
	if err != nil {
		if fe, ok := err.(*ferrors.FusionError); ok {
			return nil, fe.WithDetail("file", path)
		}
		return nil, err
	}
	return f, nil
}

// Parse decodes a request document. A missing sub_queries count is taken
// from the first present shard.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, ferrors.ValidationError("failed to parse request", err)
	}

	if f.SubQueries == 0 {
		for _, s := range f.Shards {
			if s != nil {
				f.SubQueries = len(s.SubQueries)
				break
			}
		}
	}
	if f.SubQueries <= 0 {
		return nil, ferrors.ValidationError(
			fmt.Sprintf("request must declare a positive sub_queries count, got %d", f.SubQueries), nil).
			WithSuggestion("set sub_queries or include at least one shard")
	}
	if f.Size < 0 {
		return nil, ferrors.ValidationError(fmt.Sprintf("size must be non-negative, got %d", f.Size), nil)
	}
	return &f, nil
}

// PipelineConfig returns the request's pipeline override, or def when the
// request has none. A half of the override without a technique takes def's.
func (f *File) PipelineConfig(def pipeline.Config) pipeline.Config {
	if f.Pipeline == nil {
		return def
	}
	cfg := *f.Pipeline
	if cfg.Normalization.Technique == "" {
		cfg.Normalization = def.Normalization
	}
	if cfg.Combination.Technique == "" {
		cfg.Combination = def.Combination
	}
	return cfg
}

// Request converts the file into a pipeline request. The returned request
// shares the file's hit buffers, so a File can be processed once.
func (f *File) Request() pipeline.Request {
	return pipeline.Request{
		Groups:        f.Shards,
		NumSubQueries: f.SubQueries,
		Explain:       f.Explain,
		Size:          f.Size,
	}
}
