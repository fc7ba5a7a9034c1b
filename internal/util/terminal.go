package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal checks if the given file descriptor is a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// ShowProgress reports whether interactive progress bars should be drawn
func ShowProgress() bool {
	return IsTerminal(os.Stderr.Fd()) && !IsQuiet()
}
