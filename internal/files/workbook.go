package files

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
)

// WorkbookSource reads spreadsheet workbooks into raw row data. Cell values
// come back as the strings excelize renders, so the audit pipeline applies
// the same literal classification it applies to delimited text.
type WorkbookSource struct {
	logger *slog.Logger
}

// NewWorkbookSource creates a workbook reader.
func NewWorkbookSource(logger *slog.Logger) *WorkbookSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookSource{logger: logger}
}

// Rows reads one sheet of a workbook. An empty sheet name selects the first
// sheet in the workbook.
func (s *WorkbookSource) Rows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		s.logger.Error("Failed to open workbook",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", filepath.Base(path)), err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError(fmt.Sprintf("workbook %s has no sheets", filepath.Base(path)), nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		s.logger.Error("Failed to read sheet",
			slog.String("file", path),
			slog.String("sheet", sheet),
			slog.String("error", err.Error()))
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("sheet %q not found in %s", sheet, filepath.Base(path)))
	}

	s.logger.Debug("Workbook sheet loaded",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	return rows, nil
}

// SheetNames lists the sheets of a workbook in workbook order.
func (s *WorkbookSource) SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", filepath.Base(path)), err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}
