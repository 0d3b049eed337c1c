// Package files provides the file-based input sources for the audit
// pipeline and the discovery utilities behind batch runs and directory
// listings.
//
// Discovery finds auditable files: delimited text files (csv, tsv, txt),
// spreadsheet workbooks (xlsx, xls) and glob-pattern matches, with editor
// lock files filtered out.
//
// Three readers feed the pipeline:
//
//	ReadText: a delimited text file as one string, size-capped.
//	WorkbookSource: one sheet of a local workbook as raw string rows.
//	SheetsSource: a Google Sheets range as dynamically typed rows.
//
// Manager wraps basic file operations, resolving relative paths against
// the executable-relative directory layout:
//
//	manager := files.NewManager(paths)
//	if manager.FileExists("input/data.csv") {
//	    // audit it
//	}
package files
