package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TaskSet owns the periodic tasks of one session attempt. Cancellation is
// collective: CancelAll stops every task and waits for in-flight runs to
// return, so a reset leaves no tick behind to fire late.
type TaskSet struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTaskSet() *TaskSet {
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskSet{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the set is. Long-running work started from a task
// should derive from it so CancelAll interrupts it.
func (t *TaskSet) Context() context.Context {
	return t.ctx
}

// Every runs fn on the given interval until the set is cancelled. fn receives
// the set's context and must honor its cancellation.
func (t *TaskSet) Every(name string, interval time.Duration, fn func(ctx context.Context)) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.ctx.Done():
				return
			case <-ticker.C:
				fn(t.ctx)
			}
		}
	}()
	log.Debug().Str("task", name).Dur("interval", interval).Msg("Started periodic task")
}

// CancelAll stops every task and blocks until all of them have returned.
func (t *TaskSet) CancelAll() {
	t.cancel()
	t.wg.Wait()
}
