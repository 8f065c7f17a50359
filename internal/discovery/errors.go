package discovery

import "errors"

var (
	// ErrExportRootNotFound indicates the configured export root does not exist.
	ErrExportRootNotFound = errors.New("export root not found")

	// ErrHTMLDirNotFound indicates the HTML subdirectory of the export root does not exist.
	ErrHTMLDirNotFound = errors.New("html directory not found")

	// ErrNotADirectory indicates a configured directory path is a file.
	ErrNotADirectory = errors.New("not a directory")

	// ErrWalkFailed indicates filesystem traversal of the HTML directory failed.
	ErrWalkFailed = errors.New("html directory walk failed")

	// ErrOutsideRoot indicates a page path does not lie below the export root.
	ErrOutsideRoot = errors.New("path outside export root")
)
