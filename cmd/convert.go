// Package cmd — convert command.
// This is the main command that orchestrates the pipeline:
// predict → aggregate → render → write.
//
// It handles flag validation, engine selection, and the single-file and
// --all modes.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/layoutpipe/batch"
	"github.com/gaurav-prasanna/layoutpipe/config"
	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/engine"
	"github.com/gaurav-prasanna/layoutpipe/core/service"
)

// Flag variables.
var (
	flagAll            bool
	flagJSON           bool
	flagMarkdown       bool
	flagRaw            bool
	flagPDF            bool
	flagChartsOnly     bool
	flagMarkdownTables bool
	flagEngineURL      string
	flagLang           string
	flagDevice         string
	flagDocOrientation bool
	flagDocUnwarping   bool
	flagTextlineOrient bool
	flagOutputDir      string
	flagStdout         bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>...",
	Short: "Convert a document or recognition dump to the specified output format",
	Long: `Convert runs a document through the Recognition Engine (or reads a
recognition dump when no engine is configured), aggregates its pages and
writes the result to the output directory.

Examples:
  layoutpipe convert report.json --markdown
  layoutpipe convert report.json --markdown --charts-only --output_dir ./out
  layoutpipe convert report.pdf --raw --engine-url http://localhost:8080/layout-parsing
  layoutpipe convert ./scans --all --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	// Mode flags.
	convertCmd.Flags().BoolVar(&flagAll, "all", false, "Convert every supported file under the given directories")

	// Output format flags (mutually exclusive).
	convertCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")
	convertCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	convertCmd.Flags().BoolVar(&flagRaw, "raw", false, "Output plain text")
	convertCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")

	convertCmd.Flags().BoolVar(&flagChartsOnly, "charts-only", false, "Keep only chart images")
	convertCmd.Flags().BoolVar(&flagMarkdownTables, "markdown-tables", false, "Rewrite HTML tables as Markdown tables")

	// Engine flags.
	convertCmd.Flags().StringVar(&flagEngineURL, "engine-url", "", "Recognition Engine predict URL (default: read inputs as recognition dumps)")
	convertCmd.Flags().StringVar(&flagLang, "lang", "", "Document language: en, ch, or en&ch")
	convertCmd.Flags().StringVar(&flagDevice, "device", "", "Engine device: cpu or gpu")
	convertCmd.Flags().BoolVar(&flagDocOrientation, "use-doc-orientation", false, "Let the engine classify document orientation")
	convertCmd.Flags().BoolVar(&flagDocUnwarping, "use-doc-unwarping", false, "Let the engine unwarp curved pages")
	convertCmd.Flags().BoolVar(&flagTextlineOrient, "use-textline-orientation", false, "Let the engine correct text line orientation")

	// Output.
	convertCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
	convertCmd.Flags().BoolVar(&flagStdout, "stdout", false, "Print content to stdout instead of writing files")
}

func runConvert(cmd *cobra.Command, args []string) error {
	format, err := validateFlags(len(args))
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	opts := engineOptions(cmd, cfg.Defaults)

	engineURL := cfg.Engine.URL
	if flagEngineURL != "" {
		engineURL = flagEngineURL
	}
	eng := newEngineRouter(engineURL, cfg, logger)

	outputDir := flagOutputDir
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	svc := service.New(eng, engine.NewJoiner(cfg.PageSeparator), outputDir, logger)
	req := service.Request{
		Format:         format,
		ChartOnly:      flagChartsOnly,
		MarkdownTables: flagMarkdownTables,
		Persist:        !flagStdout,
		OutputDir:      outputDir,
		Options:        opts,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if flagAll {
		return runAll(ctx, args, svc, req)
	}
	return runOnly(ctx, args[0], svc, req)
}

// runOnly processes a single input through the pipeline.
func runOnly(ctx context.Context, path string, svc *service.Service, req service.Request) error {
	res, err := processFile(ctx, path, svc, req)
	if err != nil && res == nil {
		return err
	}

	if flagStdout {
		fmt.Fprintln(os.Stdout, res.Content)
		return nil
	}
	for _, p := range res.SavedFiles {
		fmt.Fprintf(os.Stdout, "✓ Written: %s\n", p)
	}
	fmt.Fprintf(os.Stdout, "%d pages, %.2fs\n", res.PageCount, res.Metadata["processing_time_seconds"])
	return err
}

// runAll discovers every input under the given roots and processes each.
func runAll(ctx context.Context, roots []string, svc *service.Service, req service.Request) error {
	fmt.Fprintf(os.Stdout, "Discovering inputs under %s...\n", strings.Join(roots, ", "))

	paths, err := batch.Discover(ctx, roots...)
	if err != nil {
		return fmt.Errorf("discovering inputs: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Found %d files to process\n", len(paths))

	namer := batch.NewNamer(roots...)
	var errCount int
	for i, path := range paths {
		fmt.Fprintf(os.Stdout, "[%d/%d] Processing %s\n", i+1, len(paths), path)

		fileReq := req
		name, renamed := namer.Name(path)
		fileReq.BaseName = name
		if renamed && req.Persist {
			fmt.Fprintf(os.Stderr, "  ! Output name already used, writing as %s\n", name)
		}

		res, err := processFile(ctx, path, svc, fileReq)
		if err != nil && res == nil {
			fmt.Fprintf(os.Stderr, "  ✗ Error: %v\n", err)
			errCount++
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Write error: %v\n", err)
			errCount++
			continue
		}
		if flagStdout {
			fmt.Fprintln(os.Stdout, res.Content)
			continue
		}
		for _, p := range res.SavedFiles {
			fmt.Fprintf(os.Stdout, "  ✓ Written: %s\n", p)
		}
	}

	if errCount > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d files failed\n", errCount, len(paths))
	}
	return nil
}

// processFile reads one input and runs it through the service. A non-nil
// result with a non-nil error means only persistence failed.
func processFile(ctx context.Context, path string, svc *service.Service, req service.Request) (*service.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	req.Input = core.Input{Name: filepath.Base(path), Data: data}

	res, err := svc.Process(ctx, req)
	if err != nil && !service.IsPersistError(err) {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	return res, err
}

// engineRouter sends recognition dumps (.json) to the dump reader and
// everything else to the remote engine.
type engineRouter struct {
	dump   core.Engine
	remote core.Engine
}

func newEngineRouter(url string, cfg *config.Config, logger *slog.Logger) *engineRouter {
	r := &engineRouter{dump: engine.NewFileEngine(logger)}
	if url != "" {
		r.remote = engine.NewHTTPEngine(url, cfg.Engine.Timeout, logger)
	}
	return r
}

func (r *engineRouter) Predict(ctx context.Context, in core.Input, opts core.EngineOptions) (*core.Document, error) {
	if strings.EqualFold(filepath.Ext(in.Name), ".json") {
		return r.dump.Predict(ctx, in, opts)
	}
	if r.remote == nil {
		return nil, fmt.Errorf("%s is not a recognition dump and no engine URL is configured (--engine-url)", in.Name)
	}
	return r.remote.Predict(ctx, in, opts)
}

// engineOptions applies the engine flags over the configured defaults.
// Toggles given on the command line win, in either direction.
func engineOptions(cmd *cobra.Command, opts core.EngineOptions) core.EngineOptions {
	if flagLang != "" {
		opts.Language = flagLang
	}
	if flagDevice != "" {
		opts.Device = flagDevice
	}
	toggles := []struct {
		name string
		val  bool
		dst  *bool
	}{
		{"use-doc-orientation", flagDocOrientation, &opts.UseDocOrientationClassify},
		{"use-doc-unwarping", flagDocUnwarping, &opts.UseDocUnwarping},
		{"use-textline-orientation", flagTextlineOrient, &opts.UseTextlineOrientation},
	}
	for _, t := range toggles {
		if cmd.Flags().Changed(t.name) {
			*t.dst = t.val
		}
	}
	return opts
}

// validateFlags checks that exactly one output format is chosen and
// returns it.
func validateFlags(nargs int) (core.Format, error) {
	if nargs > 1 && !flagAll {
		return "", fmt.Errorf("multiple inputs require --all")
	}

	var formats []core.Format
	if flagJSON {
		formats = append(formats, core.FormatJSON)
	}
	if flagMarkdown {
		formats = append(formats, core.FormatMarkdown)
	}
	if flagRaw {
		formats = append(formats, core.FormatRaw)
	}
	if flagPDF {
		formats = append(formats, core.FormatPDF)
	}

	if len(formats) == 0 {
		return "", fmt.Errorf("exactly one output format is required: --json, --markdown, --raw, or --pdf")
	}
	if len(formats) > 1 {
		return "", fmt.Errorf("only one output format allowed per run (got %d)", len(formats))
	}

	if flagStdout && flagPDF {
		return "", fmt.Errorf("--stdout cannot be used with --pdf")
	}
	if flagLang != "" && flagLang != "en" && flagLang != "ch" && flagLang != "en&ch" {
		return "", fmt.Errorf("--lang must be en, ch, or en&ch")
	}
	if flagDevice != "" && flagDevice != "cpu" && flagDevice != "gpu" {
		return "", fmt.Errorf("--device must be cpu or gpu")
	}
	return formats[0], nil
}
