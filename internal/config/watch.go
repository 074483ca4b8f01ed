package config

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a TOML config file in place whenever it changes on
// disk, calling onChange with the freshly loaded (and validated)
// Config. Load errors during a reload are logged and skipped; the
// previously loaded Config stays in effect.
type Watcher struct {
	path    string
	log     *log.Logger
	watcher *fsnotify.Watcher
}

// Watch starts watching path's parent directory (fsnotify watches
// directories, not bare files, so editors that replace-via-rename are
// still caught) and returns a Watcher the caller must Close when done.
func Watch(path string, logger *log.Logger, onChange func(Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}

	w := &Watcher{path: path, log: logger, watcher: fw}

	go func() {
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Name != path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					w.log.Printf("config: reload %s failed: %v", path, err)
					continue
				}
				w.log.Printf("config: reloaded %s", path)
				onChange(cfg)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.log.Printf("config: watch error: %v", err)
			}
		}
	}()

	return w, nil
}

// Close stops the watch.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
