package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps media on the local filesystem under
// {rootDir}/cards/{CARD_ID}/{file}. The server serves rootDir at /media,
// so public URLs are {baseURL}/media/cards/{CARD_ID}/{file}.
type LocalStore struct {
	rootDir string
	baseURL string
}

func NewLocalStore(rootDir, baseURL string) *LocalStore {
	return &LocalStore{
		rootDir: rootDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *LocalStore) Put(_ context.Context, cardID, fileName string, data []byte) (string, error) {
	name := filepath.Base(fileName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}

	dir := filepath.Join(s.rootDir, "cards", cardID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}

	return fmt.Sprintf("%s/media/cards/%s/%s", s.baseURL, cardID, name), nil
}

func (s *LocalStore) DeleteAll(_ context.Context, cardID string) (int, error) {
	dir := filepath.Join(s.rootDir, "cards", cardID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read media dir: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("remove media dir: %w", err)
	}
	return len(entries), nil
}
