package program

import "errors"

// Sentinel errors returned by snapshot operations.
var (
	ErrDuplicateDocument      = errors.New("duplicate document")
	ErrUnknownDocument        = errors.New("unknown document")
	ErrNilTree                = errors.New("document has no syntax tree")
	ErrSymbolNotFound         = errors.New("symbol not found in snapshot")
	ErrInvalidIdentifier      = errors.New("invalid identifier")
	ErrRenameConflict         = errors.New("rename conflict")
	ErrStaleRenameAnnotations = errors.New("document carries stale rename annotations")
)
