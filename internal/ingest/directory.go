package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ScanDirectory walks root in lexical order and reads every image it accepts.
// Unreadable files are reported in the results and the walk goes on.
func ScanDirectory(ctx context.Context, root string, skipHidden bool, maxBytes int64, logger *slog.Logger) ([]File, []FileResult, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var files []File
	var failures []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			failures = append(failures, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		data, err := os.ReadFile(path)
		if err == nil {
			var f File
			f, err = FromUpload(filepath.Base(path), data, maxBytes)
			if err == nil {
				f.Name = relName(root, path)
				f.Path = path
				files = append(files, f)
				stats.Read++
				return nil
			}
		}
		logger.Warn("ingest.file.skipped", "path", path, "error", err)
		failures = append(failures, FileResult{Path: path, Err: err.Error()})
		stats.Failed++
		return nil
	})
	if err != nil {
		return files, failures, stats, fmt.Errorf("walk: %w", err)
	}

	logger.Info("ingest.scan.ok", "root", root, "scanned", stats.Scanned, "matched", stats.Matched, "read", stats.Read, "failed", stats.Failed)
	return files, failures, stats, nil
}

// relName names a scanned file by its slash-separated path under root, so
// day1/IMG_0001.jpg and day2/IMG_0001.jpg stay distinct.
func relName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
