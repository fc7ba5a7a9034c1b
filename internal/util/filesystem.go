package util

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

// WriteFileSynced writes data to path + ".part", syncs it, and renames it
// over path. The previous contents stay in place until the rename.
func WriteFileSynced(fs afero.Fs, path string, data []byte) error {
	tempPath := path + ".part"
	f, err := fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return NewIOError("create", tempPath, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		fs.Remove(tempPath)
		return NewIOError("write", tempPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		fs.Remove(tempPath)
		return NewIOError("sync", tempPath, err)
	}
	if err := f.Close(); err != nil {
		fs.Remove(tempPath)
		return NewIOError("close", tempPath, err)
	}

	if err := fs.Rename(tempPath, path); err != nil {
		fs.Remove(tempPath)
		return NewIOError("rename", path, err)
	}
	return nil
}

// ReadFileIfExists reads a whole file. A missing file returns (nil, false, nil).
func ReadFileIfExists(fs afero.Fs, path string) ([]byte, bool, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, NewIOError("read", path, err)
	}
	return data, true, nil
}
