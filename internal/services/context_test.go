package services_test

import (
	"context"
	"testing"

	"mediasweep/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithOperation(ctx, "scan")
	ctx = services.WithFile(ctx, "album/track.flac")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "scan" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if file, ok := services.FileFromContext(ctx); !ok || file != "album/track.flac" {
		t.Fatalf("unexpected file: %v %v", file, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "")
	ctx = services.WithFile(ctx, "")
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
	if _, ok := services.FileFromContext(ctx); ok {
		t.Fatal("expected no file value")
	}
}
