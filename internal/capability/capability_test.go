package capability_test

import (
	"errors"
	"strings"
	"testing"

	"mediasweep/internal/capability"
)

type checkerStub struct{ err error }

func (c checkerStub) Check() error { return c.err }

func TestCheckJoinsFailures(t *testing.T) {
	err := capability.Check(
		checkerStub{},
		checkerStub{err: errors.New("7z missing")},
		"not a checker",
		checkerStub{err: errors.New("ffmpeg missing")},
	)
	if err == nil {
		t.Fatal("expected joined error")
	}
	for _, want := range []string{"7z missing", "ffmpeg missing"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestCheckAllAvailable(t *testing.T) {
	if err := capability.Check(checkerStub{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
