package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/files"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/infrastructure"
	"github.com/trendscenter/nvflare-csv-analyzer/internal/validation"
	"github.com/trendscenter/nvflare-csv-analyzer/pkg/contracts/events"
)

// WebSocketHub is the broadcast surface batch runs publish progress to.
// The websocket package's Hub satisfies it; a nil hub disables publishing.
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// FileOutcome is the result of one file inside a batch run.
type FileOutcome struct {
	Path      string
	RunID     string
	TotalRows int
	ValidRows int
	BadCells  int
	Err       error
}

// BatchResult aggregates a directory audit. Files keeps discovery order
// regardless of which worker finished first.
type BatchResult struct {
	BatchID       string
	Dir           string
	Audited       int
	Failed        int
	TotalBadCells int
	Duration      time.Duration
	Files         []FileOutcome
}

// BatchService audits every matching file in a directory, one independent
// pipeline run per file. A failed file never aborts the rest of the batch.
type BatchService struct {
	analysis  *AnalysisService
	discovery *files.Discovery
	validator *validation.InputValidator
	hub       WebSocketHub
	workers   int
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewBatchService creates the batch runner over an existing analysis
// service. hub may be nil for CLI use.
func NewBatchService(cfg *config.Config, analysisService *AnalysisService, hub WebSocketHub, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *BatchService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "batch_service")

	workers := cfg.Analysis.BatchWorkers
	if workers < 1 {
		workers = 1
	}

	return &BatchService{
		analysis:  analysisService,
		discovery: files.NewDiscovery(""),
		validator: validation.NewInputValidator(logger, cfg.Analysis.MaxInputBytes, cfg.Analysis.AllowedExtensions),
		hub:       hub,
		workers:   workers,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run audits dir. pattern narrows the file set with a glob; empty means
// every auditable file. workers overrides the configured parallelism when
// positive. The returned error covers batch-level failures only (bad
// directory, nothing to audit, cancellation); per-file failures come back
// inside the result.
func (s *BatchService) Run(ctx context.Context, dir, pattern string, workers int) (*BatchResult, error) {
	started := time.Now()
	batchID := uuid.New().String()

	if err := s.validator.ValidateInputDirectory(dir, pattern); err != nil {
		return nil, err
	}

	targets, err := s.findTargets(dir, pattern)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNoInput, "no auditable files in directory", ErrNoFilesFound)
	}

	if workers < 1 {
		workers = s.workers
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "batch audit started",
		slog.String("batch_id", batchID),
		slog.String("dir", dir),
		slog.String("pattern", pattern),
		slog.Int("files", len(targets)),
		slog.Int("workers", workers))

	outcomes := make([]FileOutcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = FileOutcome{Path: target.Path, Err: err}
				return err
			}
			outcomes[i] = s.auditFile(gctx, batchID, target.Path)
			return nil
		})
	}
	waitErr := g.Wait()

	result := &BatchResult{
		BatchID:  batchID,
		Dir:      dir,
		Duration: time.Since(started),
		Files:    outcomes,
	}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			result.Failed++
			continue
		}
		result.Audited++
		result.TotalBadCells += outcome.BadCells
	}

	infrastructure.RecordBatchRun(ctx, s.metrics, result.Audited, result.Failed)
	s.broadcast(events.MessageTypeBatchComplete, events.BatchCompleteEvent{
		BatchID:  batchID,
		Audited:  result.Audited,
		Failed:   result.Failed,
		Duration: result.Duration.String(),
	})

	s.logger.LogAttrs(ctx, slog.LevelInfo, "batch audit complete",
		slog.String("batch_id", batchID),
		slog.Int("audited", result.Audited),
		slog.Int("failed", result.Failed),
		slog.Int("total_bad_cells", result.TotalBadCells),
		slog.Duration("duration", result.Duration))

	if waitErr != nil {
		return result, waitErr
	}
	return result, nil
}

// auditFile runs one file and publishes its started/completed/failed
// events. Errors are folded into the outcome, never returned.
func (s *BatchService) auditFile(ctx context.Context, batchID, path string) FileOutcome {
	infrastructure.RecordBatchFileChange(ctx, s.metrics, 1)
	defer infrastructure.RecordBatchFileChange(ctx, s.metrics, -1)

	s.broadcast(events.MessageTypeBatchFile, events.BatchFileEvent{
		BatchID: batchID,
		Path:    path,
		Status:  events.FileStatusStarted,
	})

	result, err := s.analysis.AnalyzeFile(ctx, path, "")
	if err != nil {
		s.broadcast(events.MessageTypeBatchFile, events.BatchFileEvent{
			BatchID: batchID,
			Path:    path,
			Status:  events.FileStatusFailed,
			Error:   apperrors.UserMessage(err),
		})
		return FileOutcome{Path: path, Err: err}
	}

	outcome := FileOutcome{
		Path:      path,
		RunID:     result.RunID,
		TotalRows: result.Report.TotalRows,
		ValidRows: result.Report.ValidRows,
		BadCells:  len(result.Report.BadCells),
	}
	s.broadcast(events.MessageTypeBatchFile, events.BatchFileEvent{
		BatchID:   batchID,
		Path:      path,
		Status:    events.FileStatusCompleted,
		TotalRows: outcome.TotalRows,
		ValidRows: outcome.ValidRows,
		BadCells:  outcome.BadCells,
	})
	return outcome
}

func (s *BatchService) findTargets(dir, pattern string) ([]files.FileInfo, error) {
	if pattern != "" {
		return s.discovery.FindFilesByPattern(dir, pattern)
	}
	return s.discovery.FindInputFiles(dir)
}

func (s *BatchService) broadcast(messageType events.MessageType, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(string(messageType), data)
}
