package util

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/exp/slices"
)

// FileInfo is one regular file in a listed directory with its modification time
type FileInfo struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// ListFilesByModTime lists regular files under the given directory in ascending
// modification-time order; files for which the given test returns false are skipped.
//
// Files that disappear between listing and stat are skipped silently, as log rotation
// may remove old files at any time.
func ListFilesByModTime(directory string, keep func(name string) bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if keep != nil && !keep(entry.Name()) {
			continue
		}
		stat, serr := entry.Info()
		if serr != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(directory, entry.Name()),
			ModTime: stat.ModTime(),
			Size:    stat.Size(),
		})
	}

	slices.SortStableFunc(files, func(a, b FileInfo) bool {
		return a.ModTime.Before(b.ModTime)
	})
	return files, nil
}
