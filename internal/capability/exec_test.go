package capability_test

import (
	"context"
	"testing"

	"mediasweep/internal/capability"
)

func TestTail(t *testing.T) {
	out := []byte("one\n\ntwo\nthree\n\nfour\n")
	if got := capability.Tail(out, 2); got != "three; four" {
		t.Fatalf("Tail = %q", got)
	}
	if got := capability.Tail(nil, 3); got != "" {
		t.Fatalf("Tail(nil) = %q", got)
	}
}

func TestCommandExecutorCapturesOutput(t *testing.T) {
	out, err := capability.CommandExecutor{}.Run(context.Background(), t.TempDir(), "/bin/sh", []string{"-c", "echo hi; echo err >&2"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := string(out); got != "hi\nerr\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
