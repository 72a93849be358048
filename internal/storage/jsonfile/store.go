package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bwf-news-parser/internal/news"
	"bwf-news-parser/internal/storage"
)

// Store JSON-файл с последним опубликованным списком
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load битый файл возвращается ошибкой, вызывающий решает, что с ней делать
func (s *Store) Load(ctx context.Context) (news.Document, error) {
	if err := ctx.Err(); err != nil {
		return news.Document{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return news.Document{}, storage.ErrNotFound
		}
		return news.Document{}, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return news.Document{}, storage.ErrNotFound
	}

	// Старый формат: просто массив
	if data[0] == '[' {
		var items []news.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return news.Document{}, fmt.Errorf("failed to decode %s: %w", s.path, err)
		}
		return news.Document{Items: items}, nil
	}

	var doc news.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return news.Document{}, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return doc, nil
}

// Save пишет во временный файл рядом и переименовывает его поверх старого
func (s *Store) Save(ctx context.Context, doc news.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Items == nil {
		doc.Items = []news.Item{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// после успешного rename файла уже нет
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
