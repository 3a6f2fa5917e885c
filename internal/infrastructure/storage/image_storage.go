package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// DefaultMaxImageBytes caps a single evidence image
const DefaultMaxImageBytes int64 = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// LocalImageStorage implements port.ImageStorage on the local filesystem.
// Files live at <baseDir>/<fichaID>/<uuid><ext>; returned paths are relative to baseDir.
type LocalImageStorage struct {
	baseDir  string
	maxBytes int64
	logger   *zap.Logger
}

// NewLocalImageStorage creates a new LocalImageStorage
func NewLocalImageStorage(baseDir string, maxBytes int64, logger *zap.Logger) *LocalImageStorage {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &LocalImageStorage{
		baseDir:  baseDir,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Save writes content under a fresh name and returns its relative path
func (s *LocalImageStorage) Save(ctx context.Context, fichaID int64, originalName string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", domainwf.NewValidationError("images", "image is empty")
	}
	if int64(len(content)) > s.maxBytes {
		return "", domainwf.NewValidationError("images",
			fmt.Sprintf("image %q exceeds %d bytes", originalName, s.maxBytes))
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", domainwf.NewValidationError("images", fmt.Sprintf("unsupported image type %q", ext))
	}

	rel := filepath.Join(strconv.FormatInt(fichaID, 10), uuid.NewString()+ext)
	fullPath, err := s.resolve(rel)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create image directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write image",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	s.logger.Debug("Image saved",
		zap.Int64("ficha_id", fichaID),
		zap.String("path", rel),
		zap.Int("size", len(content)))

	return filepath.ToSlash(rel), nil
}

// Read returns the content stored at path
func (s *LocalImageStorage) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: image %s", domainwf.ErrNotFound, path)
	}
	if err != nil {
		s.logger.Error("Failed to read image",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return content, nil
}

// Delete removes the file at path. Missing files are not an error.
func (s *LocalImageStorage) Delete(ctx context.Context, path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Failed to delete image",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.logger.Debug("Image deleted", zap.String("path", fullPath))
	return nil
}

// resolve joins path onto baseDir and rejects anything escaping it
func (s *LocalImageStorage) resolve(path string) (string, error) {
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(absBase, filepath.FromSlash(path)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", domainwf.NewValidationError("path", fmt.Sprintf("path escapes image directory: %s", path))
	}
	return absPath, nil
}

// Verify interface compliance
var _ port.ImageStorage = (*LocalImageStorage)(nil)
