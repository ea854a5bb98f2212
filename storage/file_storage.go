package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage modes selected via the STORAGE_MODE env var.
const (
	StorageModeLocal    = "local"
	StorageModeExternal = "external"
)

// UploadPathPrefix marks media payloads that reference stored files rather
// than inline data. A job image payload starting with this prefix is stored
// as a path; anything else is treated as inline encoded data.
const UploadPathPrefix = "/uploads/"

const defaultUploadDir = "/var/www/maintdata/"

// StorageMode returns the configured storage backend, defaulting to local.
func StorageMode() string {
	if mode := os.Getenv("STORAGE_MODE"); mode != "" {
		return mode
	}
	return StorageModeLocal
}

// UploadDir returns the local uploads directory.
func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return defaultUploadDir
}

// ExternalBaseURL is the object-storage base for external mode.
func ExternalBaseURL() string {
	return strings.TrimRight(os.Getenv("STORAGE_BASE_URL"), "/")
}

// IsUploadPath reports whether a media payload is a storage reference.
func IsUploadPath(payload string) bool {
	return strings.HasPrefix(payload, UploadPathPrefix) ||
		strings.HasPrefix(payload, "http://") ||
		strings.HasPrefix(payload, "https://")
}

// SaveUpload writes an uploaded file into the uploads directory under a
// unique name and returns the reference to store (path or URL depending on
// storage mode).
func SaveUpload(file multipart.File, originalName string) (string, error) {
	filename := filepath.Base(originalName)
	if filename == "" || filename == "." {
		return "", fmt.Errorf("invalid file name")
	}

	dir := UploadDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("unable to create upload directory: %w", err)
		}
	}

	uniqueName := fmt.Sprintf("%d-%s-%s", time.Now().Unix(), uuid.NewString()[:8], filename)
	dstPath := filepath.Join(dir, uniqueName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("unable to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("unable to save file: %w", err)
	}

	if StorageMode() == StorageModeExternal && ExternalBaseURL() != "" {
		return ExternalBaseURL() + UploadPathPrefix + uniqueName, nil
	}
	return UploadPathPrefix + uniqueName, nil
}

// ResolveLocalPath maps a stored upload reference back to a filesystem path.
// Rejects traversal outside the uploads directory.
func ResolveLocalPath(ref string) (string, error) {
	name := strings.TrimPrefix(ref, UploadPathPrefix)
	clean := filepath.Clean(name)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid file path")
	}

	absDir, err := filepath.Abs(UploadDir())
	if err != nil {
		return "", err
	}
	full := filepath.Join(absDir, clean)
	if !strings.HasPrefix(full, absDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("access denied")
	}
	return full, nil
}
