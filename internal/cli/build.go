package cli

import (
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/faqdex/internal/metrics"
	corpusrepo "github.com/kailas-cloud/faqdex/internal/repository/corpus"
	"github.com/kailas-cloud/faqdex/internal/repository/source"
	openaiTransport "github.com/kailas-cloud/faqdex/internal/transport/openai"
	builduc "github.com/kailas-cloud/faqdex/internal/usecase/build"
	embeddinguc "github.com/kailas-cloud/faqdex/internal/usecase/embedding"
)

type buildFlags struct {
	src      string
	patterns []string
	out      string
	rps      float64
	dryRun   bool
}

func newBuildCmd(opts *options) *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed topic source files into a corpus",
		Long: `Read every topic file under --src matching --glob (sorted by path), embed each
question with the configured embedding model and write the corpus JSON.

Entries without a question or answer are skipped; a missing topic becomes "General".
Record ids are assigned from 1 in file order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts, f)
		},
	}
	cmd.Flags().StringVar(&f.src, "src", "training_data", "directory with topic source files")
	cmd.Flags().StringSliceVar(&f.patterns, "glob", []string{source.DefaultPattern}, "file patterns relative to --src")
	cmd.Flags().StringVarP(&f.out, "out", "o", "qa_data_with_embeddings.json", "output corpus path")
	cmd.Flags().Float64Var(&f.rps, "rps", 0, "max embedding requests per second (0 = unlimited)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "list sources and entry counts without embedding")
	return cmd
}

func runBuild(cmd *cobra.Command, opts *options, f *buildFlags) error {
	out := cmd.OutOrStdout()

	files, err := source.Discover(f.src, f.patterns)
	if err != nil {
		return fmt.Errorf("discover sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files under %s match %v", f.src, f.patterns)
	}

	logger, err := opts.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if f.dryRun {
		svc := builduc.New(source.Reader{}, nil, logger)
		drafts, stats, err := svc.Collect(files)
		if err != nil {
			return err
		}
		for _, file := range files {
			rel, _ := filepath.Rel(f.src, file)
			fmt.Fprintf(out, "  %s\n", rel)
		}
		printStats(cmd, stats)
		fmt.Fprintf(out, "Would embed %d questions\n", len(drafts))
		return nil
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder := embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger,
	)

	svc := builduc.New(source.Reader{}, embedder, logger)
	if f.rps > 0 {
		svc.WithLimiter(rate.NewLimiter(rate.Limit(f.rps), 1))
	}

	drafts, stats, err := svc.Collect(files)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Embedding %d questions from %d files with %s\n", len(drafts), len(files), cfg.Embedding.Model)
	bar := progressbar.NewOptions(len(drafts),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Embedding"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	records, tokens, err := svc.Embed(cmd.Context(), drafts, func() { _ = bar.Add(1) })
	stats.Tokens = tokens
	if err != nil {
		return fmt.Errorf("build corpus: %w", err)
	}

	if err := corpusrepo.Save(f.out, records); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}

	printStats(cmd, stats)
	fmt.Fprintf(out, "Corpus written to %s (%d records)\n", f.out, len(records))
	return nil
}

func printStats(cmd *cobra.Command, s builduc.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Files:            %d\n", s.Files)
	fmt.Fprintf(out, "Entries:          %d\n", s.Entries)
	fmt.Fprintf(out, "Kept:             %d\n", s.Kept)
	fmt.Fprintf(out, "Skipped question: %d\n", s.SkippedQuestion)
	fmt.Fprintf(out, "Skipped answer:   %d\n", s.SkippedAnswer)
	if s.Tokens > 0 {
		fmt.Fprintf(out, "Tokens:           %d\n", s.Tokens)
	}
}
