// Package filex contains filesystem helpers for files the client writes:
// the local database and exported QR images.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) when missing and returns its absolute
// path. A relative dir is resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// EnsureParentDir creates the directory that will contain path.
func EnsureParentDir(path string) error {
	_, err := EnsureDir(filepath.Dir(path))
	return err
}
