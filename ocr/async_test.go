package ocr

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type stubEngine struct {
	calls atomic.Int64
	fail  bool
	delay time.Duration
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.fail {
		return Result{}, errors.New("boom")
	}
	return Result{InputID: in.ID, PlainText: "ok"}, nil
}

func TestRunnerSucceeds(t *testing.T) {
	eng := &stubEngine{}
	runner := NewRunner(eng, 2)
	if !strings.HasSuffix(runner.Name(), "-async") {
		t.Fatalf("Name() = %s", runner.Name())
	}

	inputs := []Input{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	job, err := runner.Start(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if job.ID() == "" {
		t.Fatalf("job ID should not be empty")
	}

	results, err := job.Results(context.Background())
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Results() = %d, want 3", len(results))
	}
	for i, want := range []string{"a", "b", "c"} {
		if results[i].InputID != want {
			t.Fatalf("result %d = %s, want %s (input order must be preserved)", i, results[i].InputID, want)
		}
	}

	status, err := job.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.State != JobStateSucceeded || status.Progress != 1 {
		t.Fatalf("Status() = %+v", status)
	}
}

func TestRunnerFailure(t *testing.T) {
	job, err := NewRunner(&stubEngine{fail: true}, 1).Start(context.Background(), []Input{{ID: "a"}})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := job.Results(context.Background()); err == nil {
		t.Fatalf("Results() expected failure")
	}
	status, _ := job.Status(context.Background())
	if status.State != JobStateFailed {
		t.Fatalf("Status() state = %s, want failed", status.State)
	}
}

func TestRunnerCancel(t *testing.T) {
	eng := &stubEngine{delay: 5 * time.Second}
	job, err := NewRunner(eng, 1).Start(context.Background(), []Input{{ID: "a"}, {ID: "b"}})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := job.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, err := job.Results(context.Background()); err == nil {
		t.Fatalf("Results() expected cancellation error")
	}
}

func TestRunnerRejectsEmpty(t *testing.T) {
	if _, err := NewRunner(&stubEngine{}, 1).Start(context.Background(), nil); err == nil {
		t.Fatalf("Start() expected error for empty submission")
	}
}
