package process

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

func TestSupervisor_CapturesExitAndPlaytime(t *testing.T) {
	cmd := exec.Command("sh", "-c", "echo hello; sleep 0.1")
	exited := make(chan time.Duration, 1)

	sup, err := Start(context.Background(), "inst-1", cmd, func(playtime time.Duration, exitErr error) {
		exited <- playtime
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case pt := <-exited:
		if pt <= 0 {
			t.Error("expected positive playtime")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for exit callback")
	}

	if sup.State() != StateExited {
		t.Errorf("expected StateExited, got %s", sup.State())
	}
}

func TestSupervisor_RejectsDuplicateLaunch(t *testing.T) {
	cmd1 := exec.Command("sleep", "1")
	sup, err := Start(context.Background(), "inst-dup", cmd1, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sup.Kill()

	cmd2 := exec.Command("sleep", "1")
	_, err = Start(context.Background(), "inst-dup", cmd2, nil)
	if err == nil {
		t.Fatal("expected already-running rejection")
	}
}

func TestSupervisor_TailImportantFiltersNoise(t *testing.T) {
	s := &Supervisor{logs: []LogLine{
		{Text: "Setting user: Player"},
		{Text: "[ERROR] could not load world"},
		{Text: "[WARN] deprecated flag"},
		{Text: "java.lang.Exception: boom"},
	}}
	got := s.TailImportant()
	if len(got) != 3 {
		t.Fatalf("expected 3 important lines, got %d", len(got))
	}
}
