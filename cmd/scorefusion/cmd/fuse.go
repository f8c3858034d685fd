package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scorefusion/internal/config"
	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/explain"
	"github.com/Aman-CERP/scorefusion/internal/hits"
	"github.com/Aman-CERP/scorefusion/internal/pipeline"
	"github.com/Aman-CERP/scorefusion/internal/request"
	"github.com/Aman-CERP/scorefusion/internal/ui"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

type fuseOptions struct {
	configPath string
	input      string
	explain    bool
	size       int
	format     string
}

func newFuseCmd() *cobra.Command {
	var opts fuseOptions

	cmd := &cobra.Command{
		Use:   "fuse",
		Short: "Normalize and combine the scores of one request",
		Long: `Read a request file of per-shard, per-sub-query hits, normalize each
sub-query's scores, combine them per document and print the ranked list.

The pipeline comes from the configuration (see 'scorefusion config show'),
unless the request file carries its own 'pipeline' section.`,
		Example: `  # Fuse with the configured pipeline
  scorefusion fuse --input request.yaml

  # Explain the top 5 documents
  scorefusion fuse --input request.yaml --explain --size 5

  # Machine-readable output
  scorefusion fuse --config pipeline.yaml --input request.yaml --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("size") {
				opts.size = -1
			}
			return runFuse(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Pipeline configuration file")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Request file (YAML or JSON)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Explain each returned document's score")
	cmd.Flags().IntVarP(&opts.size, "size", "n", 0, "Maximum results (0 = all; default from request)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text, json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runFuse(cmd *cobra.Command, opts fuseOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := request.Load(opts.input)
	if err != nil {
		return err
	}
	if opts.explain {
		f.Explain = true
	}
	if opts.size >= 0 {
		f.Size = opts.size
	}

	cache := pipeline.NewCache(cfg.Cache.Size, pipeline.WithLogger(logger))
	res, err := fuse(cache, cfg.Pipeline(), f)
	if err != nil {
		return err
	}

	logger.Info("fused request",
		slog.String("input", opts.input),
		slog.String("pipeline", res.Pipeline),
		slog.Int("results", len(res.Ranked)))

	if opts.format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), res.toJSON())
	}
	res.writeText(ui.NewWriter(cmd.OutOrStdout()))
	return nil
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	}
	return ferrors.ValidationError(fmt.Sprintf("unknown output format %q", format), nil).
		WithSuggestion("use text or json")
}

// fuseResult is the outcome of one processed request file.
type fuseResult struct {
	Pipeline     string
	Ranked       []hits.RankedDoc
	Explanations []*explain.Explanation
}

// fuse runs f through the pipeline its configuration resolves to.
func fuse(cache *pipeline.Cache, def pipeline.Config, f *request.File) (*fuseResult, error) {
	p, err := cache.Get(f.PipelineConfig(def))
	if err != nil {
		return nil, err
	}

	resp, err := p.Process(f.Request())
	if err != nil {
		return nil, err
	}

	res := &fuseResult{Pipeline: p.String(), Ranked: resp.Ranked}
	if !f.Explain {
		return res, nil
	}
	res.Explanations = make([]*explain.Explanation, len(resp.Ranked))
	for i, doc := range resp.Ranked {
		e, err := resp.Explain(doc)
		if err != nil {
			return nil, err
		}
		res.Explanations[i] = e
	}
	return res, nil
}

func (r *fuseResult) writeText(w *ui.Writer) {
	s := w.Styles()
	w.Print(s.Header.Render(r.Pipeline) + "\n")
	w.Print(ui.RenderRanked(s, r.Ranked))
	for i, e := range r.Explanations {
		w.Newline()
		title := fmt.Sprintf("#%d %s", i+1, r.Ranked[i].Key.DocID)
		w.Print(ui.Panel(s, title, ui.RenderTree(s, e)))
	}
}

type jsonDoc struct {
	Rank        int                  `json:"rank"`
	ID          string               `json:"id"`
	Score       *float64             `json:"score"`
	Shard       hits.SearchShard     `json:"shard"`
	Explanation *explain.Explanation `json:"explanation,omitempty"`
}

type jsonResult struct {
	Pipeline string    `json:"pipeline"`
	Results  []jsonDoc `json:"results"`
}

func (r *fuseResult) toJSON() jsonResult {
	out := jsonResult{Pipeline: r.Pipeline, Results: make([]jsonDoc, len(r.Ranked))}
	for i, doc := range r.Ranked {
		d := jsonDoc{Rank: i + 1, ID: doc.Key.DocID, Shard: doc.Key.Shard}
		// NaN has no JSON form; it is emitted as null
		if !math.IsNaN(doc.Score) {
			score := doc.Score
			d.Score = &score
		}
		if r.Explanations != nil {
			d.Explanation = r.Explanations[i]
		}
		out.Results[i] = d
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return ferrors.InternalError("failed to encode output", err)
	}
	return nil
}
