package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/config"
)

func TestNewArchiveServiceDisabledWithoutBucket(t *testing.T) {
	archive, err := NewArchiveService(context.Background(), config.ArchiveConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewArchiveService: %v", err)
	}
	if archive.Enabled() {
		t.Error("archive should be disabled without a bucket")
	}
	if err := archive.Archive(context.Background(), "resume_x.pdf", "/nonexistent"); err != nil {
		t.Errorf("noop archive returned %v", err)
	}
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))
	got := ArchiveKey("/tmp/uploads/resume_abc.pdf", at)
	if got != "resumes/2026/03/09/resume_abc.pdf" {
		t.Errorf("ArchiveKey = %q", got)
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := contentTypeFor("resume_x.pdf"); got != "application/pdf" {
		t.Errorf("pdf content type = %q", got)
	}
	if got := contentTypeFor("resume_x"); got != "application/octet-stream" {
		t.Errorf("fallback content type = %q", got)
	}
}
