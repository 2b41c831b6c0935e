package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jonwraymond/integrationhealth/observe"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. It runs until ctx is cancelled.
//
// If a reload fails the error is logged, the previous config remains
// active and onChange is not called.
func Watch(ctx context.Context, path string, logger observe.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = observe.NopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory so atomic saves (write to temp, rename over) are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	logger.Info(ctx, "config: watching for changes", observe.Field{Key: "path", Value: path})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				logger.Error(ctx, "config: reload failed, keeping previous config",
					observe.Field{Key: "path", Value: path},
					observe.Field{Key: "error", Value: err})
				continue
			}

			logger.Info(ctx, "config: reloaded", observe.Field{Key: "path", Value: path})
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(ctx, "config: watcher error", observe.Field{Key: "error", Value: err})
		}
	}
}
