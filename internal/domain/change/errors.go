package change

import "errors"

var (
	// ErrInvalidInput indicates a malformed change.
	ErrInvalidInput = errors.New("invalid change input")
	// ErrUnsupportedKind indicates a change kind the applier does not
	// implement. The delete and replace kinds are declared but their
	// semantics were never defined upstream, so they are rejected rather
	// than approximated.
	ErrUnsupportedKind = errors.New("unsupported change kind")
	// ErrLineOutOfRange indicates the change targets a line past the end of
	// the file.
	ErrLineOutOfRange = errors.New("change line out of range")
)
