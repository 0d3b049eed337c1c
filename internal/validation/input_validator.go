package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
)

// traversalPatterns covers literal and percent-encoded parent-directory
// escapes. Paths arriving over HTTP may carry either form.
var traversalPatterns = []string{
	"../", "..\\", "..%2f", "..%5c", "%2e%2e%2f", "%2e%2e%5c",
}

// InputValidator guards the file-based input sources: extension allow-list,
// size cap and path traversal rejection. A zero maxBytes disables the size
// check and an empty extension list admits any extension.
type InputValidator struct {
	logger     *slog.Logger
	maxBytes   int64
	extensions map[string]bool
}

// NewInputValidator creates a validator from the configured limits.
// Extensions are normalized to lower case with a leading dot.
func NewInputValidator(logger *slog.Logger, maxBytes int64, allowedExtensions []string) *InputValidator {
	if logger == nil {
		logger = slog.Default()
	}

	extensions := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}

	return &InputValidator{
		logger:     logger,
		maxBytes:   maxBytes,
		extensions: extensions,
	}
}

// ValidatePath rejects empty paths, NUL bytes and parent-directory escapes.
func (v *InputValidator) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.NewAppValidationError("path is required")
	}
	if strings.ContainsRune(path, 0) {
		return apperrors.NewAppValidationError("path contains a NUL byte")
	}

	lower := strings.ToLower(path)
	for _, pattern := range traversalPatterns {
		if strings.Contains(lower, pattern) {
			v.logger.Warn("Rejected path with traversal pattern",
				slog.String("path", path),
				slog.String("pattern", pattern))
			return apperrors.NewAppValidationError("path must not contain parent directory references")
		}
	}

	// An encoded variant can survive one decode; a component check catches
	// the plain form regardless of separator style.
	for _, component := range strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if component == ".." {
			v.logger.Warn("Rejected path with parent directory component",
				slog.String("path", path))
			return apperrors.NewAppValidationError("path must not contain parent directory references")
		}
	}

	return nil
}

// ValidateFile checks that a path names an existing, readable regular file.
func (v *InputValidator) ValidateFile(path string) error {
	if err := v.ValidatePath(path); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateAuditFile applies the full input guard to a candidate audit file:
// path rules, existence, allowed extension, temp-file exclusion and the
// configured size cap.
func (v *InputValidator) ValidateAuditFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if len(v.extensions) > 0 && !v.extensions[ext] {
		v.logger.Error("File extension not allowed",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(fmt.Sprintf("file extension %q is not allowed", ext))
	}

	// Spreadsheet editors leave ~$ lock files next to open workbooks.
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary workbook file",
			slog.String("file", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a temporary workbook file", base))
	}

	if v.maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
		}
		if info.Size() > v.maxBytes {
			v.logger.Error("File exceeds input size limit",
				slog.String("file", path),
				slog.Int64("size", info.Size()),
				slog.Int64("limit", v.maxBytes))
			return apperrors.NewAppValidationError(fmt.Sprintf(
				"file %s exceeds the input size limit (%d > %d bytes)", base, info.Size(), v.maxBytes))
		}
	}

	return nil
}

// ValidateInputDirectory validates that an input directory exists and logs
// how many candidate files match the pattern. A directory without matches
// is not an error; the batch simply has nothing to do.
func (v *InputValidator) ValidateInputDirectory(dir string, requiredPattern string) error {
	if err := v.ValidatePath(dir); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return apperrors.NewNotFoundError(fmt.Sprintf("input directory %s", dir))
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat directory %s", dir), err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir))
	}

	if requiredPattern != "" {
		pattern := filepath.Join(dir, requiredPattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			v.logger.Error("Failed to check for files",
				slog.String("pattern", pattern),
				slog.String("error", err.Error()))
			return apperrors.NewStorageError("failed to check for files", err)
		}

		if len(matches) == 0 {
			v.logger.Warn("No files matching pattern found",
				slog.String("directory", dir),
				slog.String("pattern", requiredPattern))
			return nil
		}

		v.logger.Info("Input directory validated",
			slog.String("directory", dir),
			slog.Int("files_found", len(matches)),
			slog.String("pattern", requiredPattern))
	}

	return nil
}

// ValidateOutputDirectory ensures an output directory exists and is writable.
func (v *InputValidator) ValidateOutputDirectory(dir string) error {
	if err := v.ValidatePath(dir); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Info("Output directory validated",
		slog.String("directory", dir))
	return nil
}
