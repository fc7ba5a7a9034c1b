package binfmt

import (
	"errors"
	"fmt"

	"github.com/franz/jp3-organiser/internal/util"
)

// Corruption causes. Each is wrapped in a CorruptionError, which also
// matches util.ErrCorrupt under errors.Is.
var (
	ErrBadMagic           = errors.New("bad magic")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrTruncated          = errors.New("truncated")
	ErrBadOffset          = errors.New("section offset out of range")
	ErrCountMismatch      = errors.New("record count does not match section size")
	ErrDanglingReference  = errors.New("reference to missing row")
	ErrInvalidUTF8        = errors.New("invalid UTF-8")
)

// CorruptionError describes a structurally invalid file. Nothing decoded
// from a file that produced one should be used.
type CorruptionError struct {
	Section string // "header", "string table", "song table", "playlist" ...
	Offset  int64  // byte offset in the file, -1 if unknown
	Cause   error
	Detail  string
}

func (e *CorruptionError) Error() string {
	msg := fmt.Sprintf("corrupt %s", e.Section)
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	msg += ": " + e.Cause.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unwrap exposes both the specific cause and util.ErrCorrupt
func (e *CorruptionError) Unwrap() []error {
	return []error{e.Cause, util.ErrCorrupt}
}

func newCorruption(section string, offset int64, cause error, format string, args ...interface{}) *CorruptionError {
	return &CorruptionError{
		Section: section,
		Offset:  offset,
		Cause:   cause,
		Detail:  fmt.Sprintf(format, args...),
	}
}
