package storage

import (
	"context"
	"errors"
	"time"

	"bwf-news-parser/internal/news"
)

// ErrNotFound сохранённого файла ещё нет
var ErrNotFound = errors.New("persisted state not found")

// Store выходной файл со списком новостей
type Store interface {
	// Load читает предыдущий список; ErrNotFound, если файла нет
	Load(ctx context.Context) (news.Document, error)

	// Save атомарно заменяет файл
	Save(ctx context.Context, doc news.Document) error
}

// ArchivedItem опубликованная новость для зеркала в БД
type ArchivedItem struct {
	CanonicalURL string
	Title        string
	Text         string
	ImageURL     string
	Date         time.Time // нулевая, если дата не разобрана
	SequenceNum  int       // позиция в опубликованном списке
	CheckSum     string    // SHA256 полей новости
}

// Archive зеркало опубликованных новостей
type Archive interface {
	// UpsertItem сохраняет или обновляет новость, возвращает (isNew, isUpdated, error)
	UpsertItem(ctx context.Context, item *ArchivedItem) (isNew bool, isUpdated bool, err error)

	Close() error
}
