package files

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/trendscenter/nvflare-csv-analyzer/internal/config"
	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
)

// SheetsSource reads ranges from Google Sheets. Values come back unformatted,
// so numbers and booleans keep their spreadsheet types instead of arriving as
// display strings.
type SheetsSource struct {
	apiKey       string
	defaultRange string
	timeout      time.Duration
	logger       *slog.Logger
	options      []option.ClientOption
}

// NewSheetsSource creates a Sheets reader from the configured credentials.
// Extra client options are appended after the API key option; tests use them
// to point the client at a fake endpoint.
func NewSheetsSource(cfg config.SheetsConfig, logger *slog.Logger, opts ...option.ClientOption) *SheetsSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsSource{
		apiKey:       cfg.APIKey,
		defaultRange: cfg.DefaultRange,
		timeout:      cfg.Timeout,
		logger:       logger,
		options:      opts,
	}
}

// Values reads one range of a spreadsheet. An empty readRange falls back to
// the configured default range.
func (s *SheetsSource) Values(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	if spreadsheetID == "" {
		return nil, apperrors.NewAppValidationError("spreadsheet id is required")
	}
	if readRange == "" {
		readRange = s.defaultRange
	}

	opts := make([]option.ClientOption, 0, len(s.options)+1)
	if s.apiKey != "" {
		opts = append(opts, option.WithAPIKey(s.apiKey))
	}
	opts = append(opts, s.options...)
	if len(opts) == 0 {
		return nil, apperrors.NewConfigError("Google Sheets API key is not configured", nil)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		s.logger.Error("Failed to create sheets service",
			slog.String("error", err.Error()))
		return nil, apperrors.NewNetworkError("failed to create sheets service", err)
	}

	resp, err := service.Spreadsheets.Values.Get(spreadsheetID, readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		s.logger.Error("Failed to read spreadsheet values",
			slog.String("spreadsheet_id", spreadsheetID),
			slog.String("range", readRange),
			slog.String("error", err.Error()))
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("failed to read range %q of spreadsheet %s", readRange, spreadsheetID), err)
	}

	s.logger.Info("Spreadsheet range loaded",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("range", readRange),
		slog.Int("rows", len(resp.Values)))

	return resp.Values, nil
}
