package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vchirila/billchat/constants"
)

// WatchConfig drives the drop-directory watcher. The root is watched
// recursively; each user has a subdirectory named after their account ID.
type WatchConfig struct {
	Root        string
	InitialScan bool          // walk the root and emit existing files first
	Debounce    time.Duration // coalesce rapid create/write bursts
}

// StartWatcher watches the drop directory and emits paths of bill documents
// as they settle. The channels close when ctx is cancelled.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *zap.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("watch root is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	// watch the root and every user subdirectory
	walk := func() error {
		return filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && constants.IsAllowedExt(filepath.Ext(path)) {
				select {
				case evCh <- path:
				default:
				}
			}
			return nil
		})
	}
	if err := walk(); err != nil {
		_ = w.Close()
		return nil, nil, err
	}
	logger.Info("ingest.watch.start", zap.String("root", cfg.Root))

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer w.Close()

		// the debounce timer is drained on this goroutine, so pending and
		// evCh are only ever touched from here
		var timer *time.Timer
		var timerC <-chan time.Time
		pending := map[string]struct{}{}

		sendPending := func() {
			for p := range pending {
				select {
				case evCh <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				sendPending()
			case e := <-w.Events:
				if e.Op&fsnotify.Create == fsnotify.Create {
					// a new user directory starts being watched immediately
					tryAddDir(w, e.Name)
				}
				if constants.IsAllowedExt(filepath.Ext(e.Name)) && e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending[e.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer == nil {
							timer = time.NewTimer(cfg.Debounce)
						} else {
							if !timer.Stop() && timerC != nil {
								<-timer.C
							}
							timer.Reset(cfg.Debounce)
						}
						timerC = timer.C
					} else {
						sendPending()
					}
				}
			case err := <-w.Errors:
				logger.Error("ingest.watch.error", zap.Error(err))
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func tryAddDir(w *fsnotify.Watcher, path string) {
	// best effort; fails harmlessly for plain files
	_ = w.Add(path)
}
