package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type StorageService interface {
	SaveFile(file *multipart.FileHeader, prefix string) (string, string, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

var safeExtension = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// SaveFile writes the upload under a generated name and returns the stored
// filename and its full path. The client's filename only contributes its extension.
func (s *storageService) SaveFile(file *multipart.FileHeader, prefix string) (string, string, error) {
	storedName := fmt.Sprintf("%s_%s%s", prefix, uuid.New().String(), uploadExtension(file.Filename))
	filePath := filepath.Join(s.uploadPath, storedName)

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(filePath)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(filePath)
		return "", "", fmt.Errorf("failed to flush file: %w", err)
	}

	return storedName, filePath, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.uploadPath, filepath.Base(filename))
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func uploadExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if !safeExtension.MatchString(ext) {
		return ""
	}
	return ext
}
