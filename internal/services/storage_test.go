package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveFileUsesGeneratedName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	storage := NewStorageService(dir)
	if err := storage.EnsureUploadDir(); err != nil {
		t.Fatalf("EnsureUploadDir: %v", err)
	}

	header := newFileHeader(t, "resume", "My Resume.PDF", []byte("%PDF-1.4 body"))

	first, firstPath, err := storage.SaveFile(header, "resume")
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	second, _, err := storage.SaveFile(header, "resume")
	if err != nil {
		t.Fatalf("SaveFile (second): %v", err)
	}

	if first == second {
		t.Fatalf("same upload saved twice should not collide: %q", first)
	}
	if !strings.HasPrefix(first, "resume_") || !strings.HasSuffix(first, ".pdf") {
		t.Errorf("stored name = %q", first)
	}
	if firstPath != filepath.Join(dir, first) {
		t.Errorf("path = %q", firstPath)
	}

	data, err := os.ReadFile(firstPath)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "%PDF-1.4 body" {
		t.Errorf("saved content = %q", data)
	}

	if err := storage.DeleteFile(first); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(firstPath); !os.IsNotExist(err) {
		t.Errorf("file should be gone, stat err = %v", err)
	}
}

func TestSaveFileMissingDirectory(t *testing.T) {
	storage := NewStorageService(filepath.Join(t.TempDir(), "does-not-exist"))
	header := newFileHeader(t, "resume", "cv.pdf", []byte("x"))

	if _, _, err := storage.SaveFile(header, "resume"); err == nil {
		t.Fatal("expected error when upload dir is missing")
	}
}

func TestGetFilePathStaysInUploadDir(t *testing.T) {
	storage := NewStorageService("/srv/uploads")
	if got := storage.GetFilePath("../../etc/passwd"); got != "/srv/uploads/passwd" {
		t.Errorf("GetFilePath = %q", got)
	}
}

func TestUploadExtension(t *testing.T) {
	tests := map[string]string{
		"cv.pdf":              ".pdf",
		"CV.DOCX":             ".docx",
		"noext":               "",
		"../../evil.sh/x.txt": ".txt",
		"weird.p df":          "",
		"long.abcdefghijk":    "",
	}
	for in, want := range tests {
		if got := uploadExtension(in); got != want {
			t.Errorf("uploadExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
