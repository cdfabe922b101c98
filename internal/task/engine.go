package task

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/gruf/go-mutexes"
	runners "codeberg.org/gruf/go-runners"

	"lumina/internal/catalog"
	"lumina/internal/config"
	"lumina/internal/logging"
	"lumina/internal/sysload"
)

// Engine drives the Queue-backed run_queue described in §4.5.
type Engine struct {
	cat    *catalog.Catalog
	remote config.RemoteConfig

	// drainGuard ensures two concurrent RunQueue calls (an HTTP-triggered manual
	// drain racing the cron-scheduled one) never interleave their get_next/delete
	// pairs for the same task; the second caller blocks until the first Process
	// call returns rather than running a second drain over the same rows.
	drainGuard runners.Processor

	// mediaLocks serializes RunAndStore per media id across goroutines in this
	// process, so a scan-triggered enqueue and a manually retried task can never
	// both mutate the same Media/MediaExtra row at once.
	mediaLocks mutexes.MutexMap

	// memGuard blocks run_and_store on a media row until enough memory headroom
	// exists to process it, estimating demand from the file's own size (§4.5).
	memGuard *sysload.Guard
}

func NewEngine(cat *catalog.Catalog, remote config.RemoteConfig) *Engine {
	return &Engine{cat: cat, remote: remote, memGuard: sysload.NewGuard()}
}

// RunQueue implements the drain loop of §4.5: for each task name in order,
// get_next -> delete -> run_and_store -> success|failure, emitting a
// ProgressEvent per completion. It returns once every selected task's queue is
// empty.
func (e *Engine) RunQueue(ctx context.Context, taskNames []string, progress chan<- ProgressEvent) (success, failed int, err error) {
	runErr := e.drainGuard.Process(func() error {
		total := 0
		for _, name := range taskNames {
			n, cerr := e.cat.CountQueue(ctx, name)
			if cerr != nil {
				return fmt.Errorf("task: count queue %s: %w", name, cerr)
			}
			total += int(n)
		}

		index := 0
		for _, name := range taskNames {
			t, ok := Get(name)
			if !ok {
				logging.L().Warnw("task: skipping unregistered task in drain", "task", name)
				continue
			}
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				row, qerr := e.cat.NextInQueue(ctx, name)
				if qerr == catalog.ErrNotFound {
					break
				}
				if qerr != nil {
					return fmt.Errorf("task: next in queue %s: %w", name, qerr)
				}

				start := time.Now()
				// Delete before run: a crash between these two statements loses
				// the job rather than re-running it (§4.5's intentional
				// at-most-once contract).
				if derr := e.cat.DeleteQueueRow(ctx, row.ID); derr != nil {
					return fmt.Errorf("task: delete queue row: %w", derr)
				}

				taskErr := e.runOne(ctx, t, row.MediaID)
				index++
				if taskErr != nil {
					failed++
					logging.L().Warnw("task: run_and_store failed", "task", name, "media_id", row.MediaID, "error", taskErr)
				} else {
					success++
				}
				sendProgress(progress, ProgressEvent{
					Index: index, Total: total, Queue: name, Err: taskErr, Elapsed: time.Since(start),
				}, func(ev ProgressEvent) {
					logging.L().Warnw("task: progress channel full, dropping event", "task", ev.Queue)
				})
			}
		}
		return nil
	})
	return success, failed, runErr
}

func (e *Engine) runOne(ctx context.Context, t Task, mediaID int64) error {
	m, err := e.cat.MediaFromID(ctx, mediaID)
	if err != nil {
		return fmt.Errorf("task: load media %d: %w", mediaID, err)
	}
	if !t.Compatible(m) {
		return fmt.Errorf("task: %s not compatible with media %d", t.Name(), mediaID)
	}

	if err := e.memGuard.WaitForHeadroom(ctx, m.Size); err != nil {
		return err
	}

	key := m.UUID.String()
	unlock := e.mediaLocks.Lock(key)
	defer unlock()

	if rc, ok := ShouldRemote(t.Name(), e.remote); ok {
		if remoteTask, ok := t.(RemoteCapable); ok {
			return remoteTask.RunRemoteAndStore(ctx, m, NewRemoteClient(rc))
		}
	}
	return t.RunAndStore(ctx, m)
}
