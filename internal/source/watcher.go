package source

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/cnharrison/harq/internal/logger"
)

// Watcher reports changes to the files behind a FileSource
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan string
	paths  []string
	log    logger.Logger
}

// NewWatcher watches every file currently matched by src
func NewWatcher(src *FileSource, log logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	paths, err := src.Paths()
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		Events: make(chan string, 16),
		log:    log,
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			log.Warn("cannot watch %s: %v", p, err)
			continue
		}
		w.paths = append(w.paths, p)
	}
	return w, nil
}

// Paths returns the files being watched
func (w *Watcher) Paths() []string {
	return w.paths
}

// Close releases the underlying watcher without calling Start
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Start forwards write/create/rename/remove events as file paths until ctx is done
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// editors replace files by rename; keep watching the path
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				_ = w.fsw.Add(ev.Name)
			}
			select {
			case w.Events <- ev.Name:
			default:
				// a refresh is already pending
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error: %v", err)
		}
	}
}
