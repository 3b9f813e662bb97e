package auth

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

// Dispatcher runs notification sends in the background
// Each task gets a context detached from the request with its own timeout.
// Failures and panics are logged and never reach the caller.
type Dispatcher struct {
	logger  *logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(logger *logging.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		logger:  logger,
		timeout: timeout,
	}
}

// Go starts task in its own goroutine
func (d *Dispatcher) Go(name string, task func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		var taskErr error
		panicErr := oops.Code("BACKGROUND_TASK_PANIC").With("task", name).Recover(func() {
			taskErr = task(logging.WithLogger(ctx, d.logger))
		})
		if panicErr != nil {
			d.logger.LogError("background task panicked", panicErr, "task", name)
			return
		}
		if taskErr != nil {
			d.logger.LogError("background task failed", taskErr, "task", name)
		}
	}()
}

// Wait blocks until every started task has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
