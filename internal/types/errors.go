package types

import "errors"

var (
	ErrInvalidFrame      = errors.New("invalid frame")
	ErrSeekUnsupported   = errors.New("source does not support frame-indexed seek")
	ErrEmptyTimeline     = errors.New("empty timeline")
	ErrInsufficientAudio = errors.New("insufficient audio")
	ErrExportFailure     = errors.New("export failed")

	ErrInvalidSegments = errors.New("invalid segments")
	ErrInvalidTitle    = errors.New("invalid title")
)
