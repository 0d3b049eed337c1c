// Command csvaudit audits delimited datasets from the command line. It
// runs the same pipeline the web server exposes: one file (or stdin, or a
// Google Sheets range) per run, or a whole directory as a bounded batch.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/exporter"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/infrastructure"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/services"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/domain"
)

func main() {
	in := flag.String("in", "", `input file to audit, or "-" for stdin`)
	dir := flag.String("dir", "", "directory to audit as a batch")
	pattern := flag.String("pattern", "", "glob narrowing the batch file set (e.g. \"*.csv\")")
	sheetID := flag.String("sheet-id", "", "Google Sheets spreadsheet id to audit")
	readRange := flag.String("range", "", "A1 range for -sheet-id (defaults from config)")
	sheet := flag.String("sheet", "", "worksheet name for workbook inputs (default: first sheet)")
	format := flag.String("format", "text", "report format: json | csv | text | markdown")
	out := flag.String("out", "", "output path (default: stdout; csv derives _columns/_badcells names)")
	workers := flag.Int("workers", 0, "batch worker count (0 = configured default)")
	configFile := flag.String("config", "", "path to a YAML config file")
	logLevel := flag.String("log-level", "", "override the configured log level")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}

	if *configFile != "" {
		os.Setenv("CSVA_CONFIG_FILE", *configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	// Reports ride stdout, so CLI logs go to stderr.
	cfg.Logging.Output = "console"
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	ctx := context.Background()
	analysisService := services.NewAnalysisService(cfg, nil, nil, nil, logger)

	switch {
	case *dir != "":
		runBatch(ctx, cfg, analysisService, logger, *dir, *pattern, *workers)

	case *sheetID != "":
		rng := *readRange
		if rng == "" {
			rng = cfg.Sheets.DefaultRange
		}
		result, err := analysisService.AnalyzeSheet(ctx, *sheetID, rng)
		finishRun(ctx, logger, result, err, *format, *out)

	case *in == "-":
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			fail(ctx, logger, apperrors.NewNoInputError(), "failed to read stdin")
		}
		result, runErr := analysisService.AnalyzeText(ctx, "stdin", string(text))
		finishRun(ctx, logger, result, runErr, *format, *out)

	case *in != "":
		result, err := analysisService.AnalyzeFile(ctx, *in, *sheet)
		finishRun(ctx, logger, result, err, *format, *out)

	default:
		fail(ctx, logger, apperrors.NewNoInputError(), "no input specified; use -in, -dir or -sheet-id")
	}
}

// runBatch audits a directory and prints one summary line per file.
// Individual file failures surface in the summary; only a batch that
// cannot start at all exits non-zero.
func runBatch(ctx context.Context, cfg *config.Config, analysisService *services.AnalysisService, logger *slog.Logger, dir, pattern string, workers int) {
	batch := services.NewBatchService(cfg, analysisService, nil, nil, logger)

	result, err := batch.Run(ctx, dir, pattern, workers)
	if err != nil {
		fail(ctx, logger, err, "batch audit failed")
	}

	fmt.Printf("Batch %s: %d audited, %d failed, %d bad cells in %s\n",
		result.BatchID, result.Audited, result.Failed, result.TotalBadCells, result.Duration.Round(time.Millisecond))
	for _, f := range result.Files {
		if f.Err != nil {
			fmt.Printf("  %-40s FAILED: %s\n", filepath.Base(f.Path), apperrors.UserMessage(f.Err))
			continue
		}
		fmt.Printf("  %-40s %d rows, %d valid, %d bad cells\n",
			filepath.Base(f.Path), f.TotalRows, f.ValidRows, f.BadCells)
	}

	if result.Audited == 0 && result.Failed > 0 {
		os.Exit(1)
	}
}

// finishRun renders a completed single run or exits on failure.
func finishRun(ctx context.Context, logger *slog.Logger, result *services.RunResult, err error, format, out string) {
	if err != nil {
		fail(ctx, logger, err, "audit failed")
	}

	logger.InfoContext(ctx, "Audit complete",
		slog.String("run_id", result.RunID),
		slog.String("source", result.Source),
		slog.Duration("duration", result.Duration))

	if err := render(result.Report, format, out); err != nil {
		fail(ctx, logger, err, "failed to write report")
	}
}

// render writes the report in the requested format. An empty out path
// writes to stdout for every format except csv, which always needs file
// names for its two artifacts.
func render(report *domain.Report, format, out string) error {
	switch format {
	case "json":
		if out == "" {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		return newExporter().WriteJSON(report, out)

	case "csv":
		base := out
		if base == "" {
			base = "audit"
		}
		base = strings.TrimSuffix(base, ".csv")
		e := newExporter()
		if err := e.WriteColumnStats(report, base+"_columns.csv"); err != nil {
			return err
		}
		return e.WriteBadCells(report, base+"_badcells.csv")

	case "markdown":
		return writeOut(out, exporter.Markdown(report))

	case "text":
		if out == "" {
			return exporter.RenderText(os.Stdout, report)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		return exporter.RenderText(f, report)

	default:
		return fmt.Errorf("unknown format %q (want json, csv, text or markdown)", format)
	}
}

func writeOut(out, content string) error {
	if out == "" {
		fmt.Print(content)
		return nil
	}
	return os.WriteFile(out, []byte(content), 0644)
}

// newExporter builds a report exporter over the standard path layout;
// relative output paths land in the reports directory.
func newExporter() *exporter.ReportExporter {
	paths, err := config.GetPaths()
	if err != nil {
		paths = &config.Paths{ReportsDir: "."}
	}
	return exporter.NewReportExporter(paths)
}

// fail logs the diagnostic and prints the generic user-facing notice.
func fail(ctx context.Context, logger *slog.Logger, err error, message string) {
	logger.ErrorContext(ctx, message, slog.String("error", err.Error()))
	fmt.Fprintln(os.Stderr, apperrors.UserMessage(err))
	os.Exit(1)
}
