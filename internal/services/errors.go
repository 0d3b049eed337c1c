package services

import "errors"

// Sentinel errors callers can test with errors.Is. They travel as the
// cause inside typed AppErrors, so transport mapping stays type-driven.
var (
	// ErrNoFilesFound means a batch target directory held nothing auditable.
	ErrNoFilesFound = errors.New("no auditable files found")

	// ErrFileNotFound means a requested artifact does not exist on disk.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPath means a requested path escaped the served directory.
	ErrInvalidPath = errors.New("invalid file path")
)
