// Package fsutil reads documents and writes rendered output safely.
package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Sentinel errors for error categorization via errors.Is.
var (
	ErrNotFound         = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrIsDirectory      = errors.New("path is a directory")
	ErrNotDirectory     = errors.New("path is not a directory")
)

// ReadDocument reads a document and classifies common failures with the
// package sentinels.
func ReadDocument(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return "", classify(path, err)
	}
	if stat.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", classify(path, err)
	}
	return string(content), nil
}

// ReadAll reads a document from r, typically standard input.
func ReadAll(r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(content), nil
}

// EnsureDir creates path and its parents if needed. A zero mode selects
// DefaultDirMode.
func EnsureDir(path string, mode os.FileMode) error {
	if mode == 0 {
		mode = DefaultDirMode
	}

	stat, err := os.Stat(path)
	switch {
	case err == nil && stat.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	case !os.IsNotExist(err):
		return classify(path, err)
	}

	if err := os.MkdirAll(path, mode); err != nil {
		return classify(path, err)
	}
	return nil
}

func classify(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
	default:
		return fmt.Errorf("access %s: %w", path, err)
	}
}
