package interceptor

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSpool nudges the poll loop when the spooler writes into the directory,
// so fresh jobs are picked up between ticks. Purely an optimization: polling
// remains the correctness mechanism because the spooler rewrites and locks
// files in ways inotify backends report inconsistently. Bursts of events are
// coalesced with a short debounce.
func watchSpool(ctx context.Context, dir string, debounce time.Duration, nudge chan<- struct{}, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("interceptor.watch.close_error", "error", err)
			}
		}()

		var timer *time.Timer
		send := func() {
			select {
			case nudge <- struct{}{}:
			default:
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if debounce > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, send)
				} else {
					send()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("interceptor.watch.error", "error", err)
			}
		}
	}()

	return nil
}
