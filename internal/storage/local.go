package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores files on disk; httpserver serves BaseURL from BasePath.
type Local struct {
	BasePath string
	BaseURL  string
}

func NewLocal(basePath, baseURL string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{BasePath: basePath, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *Local) Put(_ context.Context, key string, content io.Reader, _ string) (string, error) {
	full, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return s.URL(key), nil
}

func (s *Local) Delete(_ context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *Local) URL(key string) string {
	return s.BaseURL + "/" + strings.TrimPrefix(key, "/")
}

func (s *Local) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.BasePath, clean), nil
}
