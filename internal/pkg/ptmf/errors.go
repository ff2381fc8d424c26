package ptmf

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFileType reports a trace whose type code matches none of
// the recognized frame families. The whole file is skipped; nothing is
// partially decoded.
var ErrUnsupportedFileType = errors.New("unsupported trace file type")

// errFrameTooShort marks a frame slice shorter than its variant's header.
// Only a trailing short frame is ignorable (firmware sometimes appends a
// partial record at the end of a file); anywhere else it is structural.
var errFrameTooShort = errors.New("frame shorter than its header")

// StructuralError reports a malformed trace file that cannot be decoded.
// It aborts conversion of that file only; batch processing continues.
type StructuralError struct {
	// Frame is the 0-based index of the offending frame slice, or -1 for
	// file-level problems.
	Frame  int
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("structural decode error: %s", e.Reason)
	}
	return fmt.Sprintf("structural decode error at frame %d: %s", e.Frame, e.Reason)
}
