package deadline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunReturnsValue(t *testing.T) {
	got, err := Run(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Run() = %d, want 42", got)
	}
}

func TestRunTimesOutIgnoringCallee(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := Run(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
		<-release // does not watch ctx
		return "late", nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Run() waited for callee instead of timer")
	}
}

func TestRunPropagatesError(t *testing.T) {
	want := errors.New("boom")
	_, err := Run(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, want
	})
	if !errors.Is(err, want) {
		t.Errorf("Run() error = %v, want %v", err, want)
	}
}

func TestRunWithoutLimit(t *testing.T) {
	got, err := Run(context.Background(), 0, func(ctx context.Context) (bool, error) {
		_, has := ctx.Deadline()
		return has, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got {
		t.Error("Run() with zero duration should not set a deadline")
	}
}
