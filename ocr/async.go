package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Runner executes OCR submissions asynchronously on top of any Engine. It
// implements AsyncEngine with an in-process bounded worker pool.
type Runner struct {
	engine  Engine
	workers int
}

// NewRunner wraps an engine; workers bounds in-flight recognitions per job
// (minimum 1).
func NewRunner(engine Engine, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{engine: engine, workers: workers}
}

func (r *Runner) Name() string { return r.engine.Name() + "-async" }

// Start submits the inputs and returns immediately with a pollable job.
func (r *Runner) Start(ctx context.Context, inputs []Input) (Job, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs submitted")
	}
	jobCtx, cancel := context.WithCancel(ctx)
	j := &asyncJob{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
		state:  JobStatePending,
		total:  len(inputs),
	}
	go j.run(jobCtx, r.engine, r.workers, inputs)
	return j, nil
}

type asyncJob struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	state   JobState
	message string
	doneN   int
	total   int
	results []Result
}

func (j *asyncJob) ID() string { return j.id }

func (j *asyncJob) run(ctx context.Context, engine Engine, workers int, inputs []Input) {
	defer close(j.done)
	j.setState(JobStateRunning, "")

	results := make([]Result, len(inputs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for i, in := range inputs {
		select {
		case <-ctx.Done():
			goto finish
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := engine.Recognize(ctx, in)
			if err != nil {
				errOnce.Do(func() { firstErr = fmt.Errorf("recognize %s: %w", in.ID, err) })
				return
			}
			results[i] = res
			j.progress()
		}(i, in)
	}

finish:
	wg.Wait()
	switch {
	case ctx.Err() != nil:
		j.setState(JobStateCanceled, ctx.Err().Error())
	case firstErr != nil:
		j.setState(JobStateFailed, firstErr.Error())
	default:
		j.mu.Lock()
		j.results = results
		j.mu.Unlock()
		j.setState(JobStateSucceeded, "")
	}
}

func (j *asyncJob) setState(s JobState, msg string) {
	j.mu.Lock()
	j.state = s
	j.message = msg
	j.mu.Unlock()
}

func (j *asyncJob) progress() {
	j.mu.Lock()
	j.doneN++
	j.mu.Unlock()
}

func (j *asyncJob) Status(ctx context.Context) (JobStatus, error) {
	if err := ctx.Err(); err != nil {
		return JobStatus{}, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatus{
		State:    j.state,
		Message:  j.message,
		Progress: float64(j.doneN) / float64(j.total),
	}, nil
}

// Results blocks until the job finishes or ctx expires.
func (j *asyncJob) Results(ctx context.Context) ([]Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-j.done:
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.state {
	case JobStateSucceeded:
		return j.results, nil
	case JobStateCanceled:
		return nil, fmt.Errorf("job %s canceled: %s", j.id, j.message)
	default:
		return nil, fmt.Errorf("job %s failed: %s", j.id, j.message)
	}
}

func (j *asyncJob) Cancel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.cancel()
	return nil
}
