package console

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"plantapp/labels"
)

// ErrBusy is returned by Fire while a previous run is still in flight.
var ErrBusy = errors.New("annotation already in progress")

// Trigger runs one labeling job at a time off the calling goroutine. It is disabled
// while a job is in flight and enabled again once the job's callback has run.
type Trigger struct {
	running atomic.Bool
}

// Enabled reports whether Fire would start a new job.
func (t *Trigger) Enabled() bool {
	return !t.running.Load()
}

// Fire runs job in the background and hands its outcome to done exactly once,
// whether the job succeeds, fails or panics. The trigger is enabled again before
// done is called.
func (t *Trigger) Fire(ctx context.Context, job func(context.Context) ([]labels.Label, error), done func([]labels.Label, error)) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrBusy
	}

	go func() {
		var (
			result []labels.Label
			err    error
		)
		defer func() {
			if r := recover(); r != nil {
				result, err = nil, labels.Transport("annotate", fmt.Errorf("annotation panicked: %v", r))
			}
			t.running.Store(false)
			done(result, err)
		}()
		result, err = job(ctx)
	}()
	return nil
}
