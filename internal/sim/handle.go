package sim

import (
	"context"
	"errors"
	"time"

	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/process"
)

// Handle follows one started run. Its exported fields are set before
// StartRun returns, except EndedAt and Incomplete which are set before
// Done is closed.
type Handle struct {
	ID        string
	Identity  paths.Identity
	Paths     paths.Paths
	Command   string
	StartedAt time.Time
	EndedAt   time.Time
	// Incomplete is where a cancelled run's partial result was moved.
	Incomplete string

	cancel context.CancelCauseFunc
	done   chan struct{}
	result *process.Result
}

var errCancelRequested = errors.New("cancel requested")

func newHandle(id string, ident paths.Identity, p paths.Paths, cmdline string, cancel context.CancelCauseFunc) *Handle {
	return &Handle{
		ID:       id,
		Identity: ident,
		Paths:    p,
		Command:  cmdline,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Done is closed when the run has ended and its bookkeeping is finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the run ends or ctx is done. The returned error is the
// run's classified error: nil, a *simerr.RunFailure or one wrapping
// simerr.ErrCancelled.
func (h *Handle) Wait(ctx context.Context) (*process.Result, error) {
	select {
	case <-h.done:
		return h.result, h.result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel kills the run's process group. It is a no-op once the run ended.
func (h *Handle) Cancel() {
	h.cancel(errCancelRequested)
}

// Result is nil until the run has ended.
func (h *Handle) Result() *process.Result {
	select {
	case <-h.done:
		return h.result
	default:
		return nil
	}
}
