package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestFanoutCollapsesNilHandlers(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected noop handler when every input is nil")
	}
	single := slog.NewTextHandler(&bytes.Buffer{}, nil)
	if got := newFanoutHandler(nil, single); got != single {
		t.Fatalf("expected single handler passthrough, got %T", got)
	}
}

func TestFanoutRespectsPerHandlerLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	info := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(newFanoutHandler(info, debug)).With(String(FieldRunID, "r1"))

	logger.Debug("detail")
	logger.Info("summary")

	if strings.Contains(infoBuf.String(), "detail") {
		t.Fatalf("info handler received debug record: %q", infoBuf.String())
	}
	for _, want := range []string{"detail", "summary", "run_id=r1"} {
		if !strings.Contains(debugBuf.String(), want) {
			t.Fatalf("debug handler missing %q: %q", want, debugBuf.String())
		}
	}
	if !strings.Contains(infoBuf.String(), "run_id=r1") {
		t.Fatalf("expected attrs propagated to info handler: %q", infoBuf.String())
	}
}
