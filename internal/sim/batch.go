package sim

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
	"github.com/san-kum/mcerdsim/internal/process"
	"github.com/san-kum/mcerdsim/internal/simerr"
)

// Job is one run of a batch.
type Job struct {
	Identity paths.Identity
	Config   *physics.Config
}

type State int

const (
	StateQueued State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s State) Final() bool { return s >= StateCompleted }

// Event reports a job changing state. Result is set once the job is final.
type Event struct {
	Index  int
	Job    Job
	State  State
	RunID  string
	Result *process.Result
	Err    error
}

type BatchResult struct {
	Job    Job
	RunID  string
	Result *process.Result
	Err    error
}

// Batch runs jobs through a controller with bounded parallelism.
type Batch struct {
	ctrl      *Controller
	jobs      []Job
	limit     int
	mu        sync.Mutex
	observers []func(Event)
}

// NewBatch runs at most limit jobs at a time; limit <= 0 means one per CPU.
func NewBatch(ctrl *Controller, jobs []Job, limit int) *Batch {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &Batch{ctrl: ctrl, jobs: jobs, limit: limit}
}

// OnEvent registers fn for every state change. Calls are serialized.
func (b *Batch) OnEvent(fn func(Event)) { b.observers = append(b.observers, fn) }

func (b *Batch) Jobs() []Job { return b.jobs }

func (b *Batch) emit(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, fn := range b.observers {
		fn(ev)
	}
}

// Run starts every job and waits for all of them. A failing or cancelled
// run is reported in its BatchResult and does not stop the others. A job
// that cannot be started at all (bad configuration, unsupported platform,
// missing binary) aborts the batch: queued jobs are skipped, running ones
// cancelled, and the error returned.
func (b *Batch) Run(ctx context.Context) ([]BatchResult, error) {
	results := make([]BatchResult, len(b.jobs))
	for i, job := range b.jobs {
		results[i].Job = job
		b.emit(Event{Index: i, Job: job, State: StateQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)

	for i := range b.jobs {
		idx := i
		g.Go(func() error {
			job := b.jobs[idx]
			if err := gctx.Err(); err != nil {
				results[idx].Err = err
				b.emit(Event{Index: idx, Job: job, State: StateCancelled, Err: err})
				return nil
			}

			h, err := b.ctrl.StartRun(gctx, job.Identity, job.Config)
			if err != nil && gctx.Err() != nil {
				results[idx].Err = err
				b.emit(Event{Index: idx, Job: job, State: StateCancelled, Err: err})
				return nil
			}
			if err != nil {
				results[idx].Err = err
				b.emit(Event{Index: idx, Job: job, State: StateFailed, Err: err})
				return err
			}
			results[idx].RunID = h.ID
			b.emit(Event{Index: idx, Job: job, State: StateRunning, RunID: h.ID})

			<-h.Done()
			res := h.Result()
			results[idx].Result = res
			results[idx].Err = res.Err

			state := StateCompleted
			switch {
			case errors.Is(res.Err, simerr.ErrCancelled):
				state = StateCancelled
			case res.Err != nil:
				state = StateFailed
			}
			b.emit(Event{Index: idx, Job: job, State: state, RunID: h.ID, Result: res, Err: res.Err})
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}
