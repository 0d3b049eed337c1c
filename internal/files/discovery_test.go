package files

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFiles(t *testing.T, dir string, names []string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("test content"), 0644))
	}
}

func TestNewDiscovery(t *testing.T) {
	basePath := "/test/base"
	discovery := NewDiscovery(basePath)

	assert.NotNil(t, discovery)
	assert.Equal(t, basePath, discovery.basePath)
}

func TestFindCSVFiles(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		expectedCount int
		description   string
	}{
		{
			name:          "delimited text extensions",
			files:         []string{"data1.csv", "data2.tsv", "notes.txt"},
			expectedCount: 3,
			description:   "Should find csv, tsv and txt files",
		},
		{
			name:          "case insensitive matching",
			files:         []string{"data.CSV", "DATA.Csv", "other.TSV"},
			expectedCount: 3,
			description:   "Should match extensions regardless of case",
		},
		{
			name:          "mixed file types",
			files:         []string{"data.csv", "report.xlsx", "doc.pdf", "image.png"},
			expectedCount: 1,
			description:   "Should skip non-delimited files",
		},
		{
			name:          "no matching files",
			files:         []string{"report.xlsx", "doc.pdf"},
			expectedCount: 0,
			description:   "Should find nothing when no delimited files exist",
		},
		{
			name:          "empty directory",
			files:         []string{},
			expectedCount: 0,
			description:   "Should handle empty directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			discovery := NewDiscovery(tmpDir)

			testDir := "csv_test"
			fullTestDir := filepath.Join(tmpDir, testDir)
			require.NoError(t, os.MkdirAll(fullTestDir, 0755))
			writeTestFiles(t, fullTestDir, tt.files)

			files, err := discovery.FindCSVFiles(testDir)
			assert.NoError(t, err, tt.description)
			assert.Equal(t, tt.expectedCount, len(files), tt.description)

			// Results come back in name order for stable batch runs.
			assert.True(t, sort.SliceIsSorted(files, func(i, j int) bool {
				return files[i].Name < files[j].Name
			}))

			for _, file := range files {
				assert.NotEmpty(t, file.Name)
				assert.NotEmpty(t, file.Path)
				assert.False(t, file.IsDir)
				assert.Greater(t, file.Size, int64(0))
				assert.False(t, file.ModTime.IsZero())
			}
		})
	}
}

func TestFindWorkbookFiles(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		expectedCount int
		description   string
	}{
		{
			name:          "workbook extensions",
			files:         []string{"report1.xlsx", "report2.xls", "report3.XLSX"},
			expectedCount: 3,
			description:   "Should find workbooks regardless of case",
		},
		{
			name:          "editor lock files skipped",
			files:         []string{"report.xlsx", "~$report.xlsx"},
			expectedCount: 1,
			description:   "Should skip ~$ lock files",
		},
		{
			name:          "mixed file types",
			files:         []string{"report.xlsx", "data.csv", "doc.pdf"},
			expectedCount: 1,
			description:   "Should find only workbooks",
		},
		{
			name:          "no workbooks",
			files:         []string{"data.csv", "doc.pdf"},
			expectedCount: 0,
			description:   "Should find no workbooks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			discovery := NewDiscovery(dir)
			writeTestFiles(t, dir, tt.files)

			files, err := discovery.FindWorkbookFiles(dir)
			assert.NoError(t, err, tt.description)
			assert.Equal(t, tt.expectedCount, len(files), tt.description)
		})
	}
}

func TestFindInputFiles(t *testing.T) {
	dir := t.TempDir()
	discovery := NewDiscovery(dir)
	writeTestFiles(t, dir, []string{
		"b.csv", "a.xlsx", "c.tsv", "~$a.xlsx", "skip.pdf",
	})

	files, err := discovery.FindInputFiles(dir)
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"a.xlsx", "b.csv", "c.tsv"}, names)
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	discovery := NewDiscovery(dir)
	writeTestFiles(t, dir, []string{"run_1.csv", "run_2.csv", "other.csv", "run_3.txt"})

	t.Run("glob match", func(t *testing.T) {
		files, err := discovery.FindFilesByPattern(dir, "run_*.csv")
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "run_1.csv", files[0].Name)
		assert.Equal(t, "run_2.csv", files[1].Name)
	})

	t.Run("no matches", func(t *testing.T) {
		files, err := discovery.FindFilesByPattern(dir, "*.xlsx")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := discovery.FindFilesByPattern(dir, "[")
		assert.Error(t, err)
	})
}

func TestFindCSVFiles_AbsoluteDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestFiles(t, dir, []string{"data.csv"})

	// An absolute directory bypasses the base path entirely.
	discovery := NewDiscovery("/unrelated/base")
	files, err := discovery.FindCSVFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "data.csv"), files[0].Path)
}

func TestFindCSVFiles_MissingDirectory(t *testing.T) {
	discovery := NewDiscovery(t.TempDir())

	_, err := discovery.FindCSVFiles("does_not_exist")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read directory")
}

func TestListDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "reports"), 0755))
	writeTestFiles(t, dir, []string{"data.csv"})

	discovery := NewDiscovery(dir)
	dirs, err := discovery.ListDirectories(dir)
	require.NoError(t, err)
	require.Len(t, dirs, 2)

	for _, d := range dirs {
		assert.True(t, d.IsDir)
		assert.NotEmpty(t, d.Name)
	}
}

func TestGetLatestFile(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		_, ok := GetLatestFile(nil)
		assert.False(t, ok)
	})

	t.Run("latest by modification time", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFiles(t, dir, []string{"old.csv", "new.csv"})

		base := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dir, "old.csv"), base, base))
		require.NoError(t, os.Chtimes(filepath.Join(dir, "new.csv"), base.Add(time.Minute), base.Add(time.Minute)))

		discovery := NewDiscovery(dir)
		files, err := discovery.FindCSVFiles(dir)
		require.NoError(t, err)

		latest, ok := GetLatestFile(files)
		require.True(t, ok)
		assert.Equal(t, "new.csv", latest.Name)
	})
}
