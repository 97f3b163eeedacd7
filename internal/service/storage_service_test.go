package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"modtraining_backend/internal/config"
	"modtraining_backend/internal/model"
)

func TestArchiveWritesTranscriptLocally(t *testing.T) {
	dir := t.TempDir()
	svc := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: dir}})

	reviewedAt := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	sub := &model.Submission{
		ID:         "abc",
		UserID:     "555",
		Answers:    []model.Answer{{QuestionNumber: 1, UserAnswer: "hello", IsCorrect: false}},
		Status:     model.StatusDenied,
		ReviewedBy: adminID,
		ReviewedAt: &reviewedAt,
		CreatedAt:  time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
	}

	url, err := svc.Archive(context.Background(), sub)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if url != "/api/admin/transcripts/2026/03/abc.json" {
		t.Fatalf("url = %q", url)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "2026", "03", "abc.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got model.Submission
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "abc" || got.Status != model.StatusDenied || got.ReviewedBy != adminID || len(got.Answers) != 1 {
		t.Fatalf("unexpected transcript %+v", got)
	}
}

func TestUnknownStorageTypeFallsBackToLocal(t *testing.T) {
	svc := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: "ftp", LocalPath: t.TempDir()}})
	if _, ok := svc.Provider.(*LocalStorageProvider); !ok {
		t.Fatalf("provider = %T, want local", svc.Provider)
	}
}
