package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/franz/jp3-organiser/internal/journal"
	"github.com/franz/jp3-organiser/internal/library"
	"github.com/franz/jp3-organiser/internal/util"
)

func openLibrary() (*library.Library, error) {
	applyLogLevel()
	lib, err := library.Open(libraryBase(), library.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	util.DebugLog("Library: %s", lib.Root)
	return lib, nil
}

// record runs op and stores its outcome in the journal. Journal failures
// are logged, never returned: the library operation has already happened.
func record(kind, root string, args []string, op func() (interface{}, error)) error {
	entry := journal.Begin(kind, journalKey(root), strings.Join(args, " "))
	summary, opErr := op()

	path := journalPath()
	if path == "" {
		return opErr
	}
	j, err := journal.Open(path)
	if err != nil {
		util.WarnLog("Journal unavailable: %v", err)
		return opErr
	}
	defer j.Close()
	if err := j.Finish(entry, summary, opErr); err != nil {
		util.WarnLog("Failed to record %s: %v", kind, err)
	}
	return opErr
}

// journalKey identifies a library in the journal independent of the
// working directory
func journalKey(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

func parseID(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, util.ErrValidation)
	}
	return uint32(n), nil
}

// parseIDs accepts ids as separate arguments or comma-separated lists
func parseIDs(args []string) ([]uint32, error) {
	var ids []uint32
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given: %w", util.ErrValidation)
	}
	return ids, nil
}

func formatDuration(secs uint16) string {
	if secs == 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
