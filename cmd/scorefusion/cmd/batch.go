package cmd

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/scorefusion/internal/config"
	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/pipeline"
	"github.com/Aman-CERP/scorefusion/internal/request"
	"github.com/Aman-CERP/scorefusion/internal/telemetry"
	"github.com/Aman-CERP/scorefusion/internal/ui"
)

type batchOptions struct {
	configPath  string
	concurrency int
	explain     bool
	format      string
	stats       bool
}

func newBatchCmd() *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch <request>...",
		Short: "Fuse many request files concurrently",
		Long: `Process several request files in parallel. Pipelines are validated once
and shared between requests with the same configuration. Results are printed
in argument order; the first failing request aborts the batch.`,
		Example: `  scorefusion batch --config pipeline.yaml q1.yaml q2.yaml q3.yaml
  scorefusion batch --concurrency 2 --format json requests/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Pipeline configuration file")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", runtime.NumCPU(), "Maximum requests processed at once")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Explain each returned document's score")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "Output format: text, json")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print batch statistics after the results")

	return cmd
}

func runBatch(cmd *cobra.Command, opts batchOptions, paths []string) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	if opts.concurrency < 1 {
		return ferrors.ValidationError("concurrency must be at least 1", nil)
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

	metrics := telemetry.NewMetrics(10)
	results, err := fuseAll(cmd.Context(), logger, cfg, opts, paths, metrics)
	if err != nil {
		return err
	}

	if opts.format == formatJSON {
		out := make(map[string]jsonResult, len(paths))
		for i, p := range paths {
			out[p] = results[i].toJSON()
		}
		if opts.stats {
			return writeJSON(cmd.OutOrStdout(), struct {
				Results map[string]jsonResult `json:"results"`
				Stats   telemetry.Snapshot    `json:"stats"`
			}{out, metrics.Snapshot()})
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	w := ui.NewWriter(cmd.OutOrStdout())
	for i, p := range paths {
		if i > 0 {
			w.Newline()
		}
		w.Print(w.Styles().Label.Render("== "+p+" ==") + "\n")
		results[i].writeText(w)
	}
	w.Newline()
	w.Successf("fused %d requests", len(paths))
	if opts.stats {
		writeStats(w, metrics.Snapshot())
	}
	return nil
}

func writeStats(w *ui.Writer, s telemetry.Snapshot) {
	w.Statusf("Documents: %d (%d requests empty)", s.Documents, s.Empty)
	for _, p := range s.Pipelines {
		w.Statusf("Pipeline %s: %d", p.Pipeline, p.Count)
	}
	for _, b := range telemetry.Buckets {
		if c := s.Latency[b]; c > 0 {
			w.Statusf("Latency %-7s %d", b, c)
		}
	}
	for _, src := range s.EmptySource {
		w.Warningf("no results: %s", src)
	}
	w.Statusf("Elapsed: %s", s.Elapsed.Round(time.Microsecond))
}

// fuseAll processes paths with at most opts.concurrency in flight. Results
// are indexed like paths.
func fuseAll(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts batchOptions, paths []string, metrics *telemetry.Metrics) ([]*fuseResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cache := pipeline.NewCache(cfg.Cache.Size, pipeline.WithLogger(logger))
	def := cfg.Pipeline()
	results := make([]*fuseResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := request.Load(path)
			if err != nil {
				return err
			}
			if opts.explain {
				f.Explain = true
			}
			start := time.Now()
			res, err := fuse(cache, def, f)
			event := telemetry.FusionEvent{Source: path, Latency: time.Since(start), Err: err}
			if res != nil {
				event.Pipeline = res.Pipeline
				event.Documents = len(res.Ranked)
			}
			metrics.Record(event)
			if err != nil {
				if fe, ok := err.(*ferrors.FusionError); ok {
					return fe.WithDetail("file", path)
				}
				return err
			}
			results[i] = res
			logger.Debug("request fused", slog.String("input", path), slog.Int("results", len(res.Ranked)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("batch complete",
		slog.Int("requests", len(paths)),
		slog.Int("pipelines", cache.Len()))
	return results, nil
}
