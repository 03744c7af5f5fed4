package services_test

import (
	"context"
	"testing"

	"keepsake/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-7")
	ctx = services.WithFile(ctx, "photos/a.jpg")
	ctx = services.WithStage(ctx, "archive")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-7" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if file, ok := services.FileFromContext(ctx); !ok || file != "photos/a.jpg" {
		t.Fatalf("unexpected file: %v %v", file, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "archive" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithFile(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.FileFromContext(ctx); ok {
		t.Fatal("expected no file value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
