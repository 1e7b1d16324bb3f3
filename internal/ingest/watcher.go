package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet is how long a drop folder must be still before its new files
// are handed over as one group.
const DefaultQuiet = 3 * time.Second

type WatchConfig struct {
	Root       string
	Quiet      time.Duration
	MaxBytes   int64
	SkipHidden bool
}

// Watch follows Root (and directories created under it) and emits every new
// image as part of a group once no file event arrived for Quiet. A path is
// emitted at most once. The channel closes when ctx ends.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan []File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		return nil, errors.New("watch root is required")
	}
	if cfg.Quiet <= 0 {
		cfg.Quiet = DefaultQuiet
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxFileBytes
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, err
	}
	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if cfg.SkipHidden && path != cfg.Root && IsHidden(path) {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to add watch root", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, err
	}

	out := make(chan []File)
	go func() {
		defer close(out)
		defer func() { _ = w.Close() }()

		pending := map[string]struct{}{}
		emitted := map[string]struct{}{}
		timer := time.NewTimer(cfg.Quiet)
		if !timer.Stop() {
			<-timer.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("ingest.watch.add_dir_failed", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
					continue
				}
				if !AllowedExt(filepath.Ext(e.Name)) || (cfg.SkipHidden && IsHidden(e.Name)) {
					continue
				}
				if _, done := emitted[e.Name]; done {
					continue
				}
				pending[e.Name] = struct{}{}
				timer.Reset(cfg.Quiet)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
			case <-timer.C:
				group := collect(cfg.Root, pending, cfg.MaxBytes, logger)
				for p := range pending {
					emitted[p] = struct{}{}
					delete(pending, p)
				}
				if len(group) == 0 {
					continue
				}
				logger.Info("ingest.watch.group", "root", cfg.Root, "files", len(group))
				select {
				case out <- group:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	logger.Info("ingest.watch.start", "root", cfg.Root, "quiet_ms", cfg.Quiet.Milliseconds())
	return out, nil
}

// collect reads the pending paths that still exist, sorted by name.
func collect(root string, pending map[string]struct{}, maxBytes int64, logger *slog.Logger) []File {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	var files []File
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			var f File
			f, err = FromUpload(filepath.Base(p), data, maxBytes)
			if err == nil {
				f.Name = relName(root, p)
				f.Path = p
				files = append(files, f)
				continue
			}
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("ingest.file.skipped", "path", p, "error", err)
		}
	}
	return files
}
