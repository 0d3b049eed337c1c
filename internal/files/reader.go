package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/trendscenter/nvflare-csv-analyzer/internal/errors"
)

// ReadText reads a delimited text file into memory for parsing. A positive
// maxBytes caps how much the reader will accept; the limit is enforced at
// read time, so a file that grows between stat and read is still caught.
func ReadText(path string, maxBytes int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
		}
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	var reader io.Reader = file
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", apperrors.NewAppValidationError(fmt.Sprintf(
			"file %s exceeds the input size limit (%d bytes)", filepath.Base(path), maxBytes))
	}

	return string(data), nil
}
