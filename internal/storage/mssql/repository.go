package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"bwf-news-parser/internal/observability"
	"bwf-news-parser/internal/storage"
)

// upsertQuery обновляет строку только при изменившемся CheckSum;
// $action пуст (нет строк), если ничего не поменялось
const upsertQuery = `
	MERGE INTO TblNews AS target
	USING (SELECT @URL AS URL) AS source
	ON target.[URL] = source.URL
	WHEN MATCHED AND (target.[CheckSum] IS NULL OR target.[CheckSum] <> @CheckSum) THEN
		UPDATE SET
			[Title] = @Title,
			[Text] = @Text,
			[ThumbnailURL] = @ThumbnailURL,
			[DT] = @DT,
			[CheckSum] = @CheckSum,
			[SequenceNum] = @SequenceNum
	WHEN NOT MATCHED THEN
		INSERT ([SequenceNum], [DT], [Title], [Text], [URL], [ThumbnailURL], [CheckSum])
		VALUES (@SequenceNum, @DT, @Title, @Text, @URL, @ThumbnailURL, @CheckSum)
	OUTPUT $action;
`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

var _ storage.Archive = (*Repository)(nil)

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

// UpsertItem сохраняет или обновляет новость
func (r *Repository) UpsertItem(ctx context.Context, item *storage.ArchivedItem) (isNew bool, isUpdated bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	stmt, err := r.db.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return false, false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var action string
	err = stmt.QueryRowContext(ctx,
		sql.Named("SequenceNum", item.SequenceNum),
		sql.Named("Title", item.Title),
		sql.Named("Text", item.Text),
		sql.Named("URL", item.CanonicalURL),
		sql.Named("ThumbnailURL", item.ImageURL),
		sql.Named("DT", nullableTime(item.Date)),
		sql.Named("CheckSum", item.CheckSum),
	).Scan(&action)

	if errors.Is(err, sql.ErrNoRows) {
		// CheckSum совпал
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to execute upsert: %w", err)
	}

	isNew, isUpdated = classifyAction(action)
	return isNew, isUpdated, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func classifyAction(action string) (isNew, isUpdated bool) {
	switch action {
	case "INSERT":
		return true, false
	case "UPDATE":
		return false, true
	}
	return false, false
}

// nullableTime нулевая дата пишется как NULL
func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
