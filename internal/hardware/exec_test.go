package hardware

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func TestExecRunner_MissingTool(t *testing.T) {
	r := NewExecRunner(time.Second, 1)
	_, err := r.Run(context.Background(), "definitely-not-a-real-tool-12345")
	if !errors.Is(err, ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
}

func TestExecRunner_Output(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	r := NewExecRunner(time.Second, 1)
	out, err := r.Run(context.Background(), "echo", "npu")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(out) != "npu\n" {
		t.Fatalf("out=%q", out)
	}
}

func TestExecRunner_TimeoutBoundsHungTool(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	r := NewExecRunner(100*time.Millisecond, 1)
	start := time.Now()
	_, err := r.Run(context.Background(), "sleep", "5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Fatalf("runner took %s, timeout not applied", d)
	}
}

func TestExecRunner_SemaphoreHonoursContext(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	r := NewExecRunner(time.Second, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Run(context.Background(), "sleep", "0.3")
	}()
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Run(ctx, "sleep", "0"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected semaphore wait to end with ctx, got %v", err)
	}
	<-done
}
