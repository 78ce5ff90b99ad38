package docstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_ ]`)

// LocalStore is a filesystem-backed document store: a base directory with
// one subdirectory per lifecycle folder. It stands in for the shared
// drive the reports are uploaded to.
type LocalStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalStore creates a LocalStore rooted at baseDir, creating the
// lifecycle folders if needed.
func NewLocalStore(baseDir string, logger *zap.Logger) (*LocalStore, error) {
	for _, folder := range []string{FolderNew, FolderInProgress, FolderDone} {
		if err := os.MkdirAll(filepath.Join(baseDir, folder), 0755); err != nil {
			return nil, fmt.Errorf("failed to create folder %s: %w", folder, err)
		}
	}
	return &LocalStore{baseDir: baseDir, logger: logger}, nil
}

// ListFolder returns the files in a lifecycle folder.
func (s *LocalStore) ListFolder(ctx context.Context, folder string) ([]File, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, folder))
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folder, err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, File{ID: entry.Name(), Name: entry.Name()})
	}
	return files, nil
}

// Move relocates a file to the target lifecycle folder, wherever it
// currently sits.
func (s *LocalStore) Move(ctx context.Context, fileID, targetFolder string) error {
	current, err := s.locate(fileID)
	if err != nil {
		return err
	}

	target := filepath.Join(s.baseDir, targetFolder, sanitizeName(fileID))
	if err := os.Rename(current, target); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", fileID, targetFolder, err)
	}

	s.logger.Debug("Moved document",
		zap.String("file", fileID),
		zap.String("folder", targetFolder))
	return nil
}

// Download copies a file out of the store to localPath.
func (s *LocalStore) Download(ctx context.Context, fileID, localPath string) error {
	current, err := s.locate(fileID)
	if err != nil {
		return err
	}

	src, err := os.Open(current)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileID, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to download %s: %w", fileID, err)
	}
	return nil
}

// Upload copies a local file into the store's root, next to the lifecycle
// folders.
func (s *LocalStore) Upload(ctx context.Context, localPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	target := filepath.Join(s.baseDir, sanitizeName(filepath.Base(localPath)))
	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	s.logger.Debug("Uploaded artifact", zap.String("file", filepath.Base(localPath)))
	return nil
}

// locate finds a file by id across the lifecycle folders.
func (s *LocalStore) locate(fileID string) (string, error) {
	name := sanitizeName(fileID)
	for _, folder := range []string{FolderNew, FolderInProgress, FolderDone} {
		path := filepath.Join(s.baseDir, folder, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("document %s not found in store", fileID)
}

// sanitizeName strips path separators and unsafe characters so a file id
// can never escape the store.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	return unsafeChars.ReplaceAllString(name, "")
}

var _ Store = (*LocalStore)(nil)
