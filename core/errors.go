package core

import "errors"

// Error taxonomy for the selection pipeline. Stages raise these synchronously
// at the violated precondition; nothing is retried or defaulted in the core.
var (
	// ErrInvalidInput means no usable price panel was supplied.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotReady means a stage ran before its prerequisite produced output.
	ErrNotReady = errors.New("not ready")

	// ErrNoCandidates means a filtering stage received or produced an empty
	// pair list where it must find something.
	ErrNoCandidates = errors.New("no candidates")
)
