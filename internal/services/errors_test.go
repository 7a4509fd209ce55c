package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"mediasweep/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "convert", "transcode", "ffmpeg exited", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"convert", "transcode", "ffmpeg exited"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "scan", "probe", "", errors.New("x")), services.KindValidation},
		{services.Wrap(services.ErrExternalTool, "compress", "create", "", nil), services.KindCapability},
		{services.Wrap(services.ErrToolUnavailable, "compress", "preflight", "", nil), services.KindUnavailable},
		{services.Wrap(services.ErrConflict, "convert", "conflict", "", nil), services.KindConflict},
		{services.Wrap(services.ErrIO, "convert", "rename", "", nil), services.KindIO},
		{services.Wrap(services.ErrConfiguration, "tags", "validate", "", nil), services.KindConfig},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), services.KindTimeout},
		{fmt.Errorf("wrapped: %w", context.Canceled), services.KindCancelled},
		{errors.New("plain"), services.KindUnclassified},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
