package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

// LogProcessing records one pipeline stage. The log's ID and CreatedAt are
// filled in on success.
func (s *SQLiteStorage) LogProcessing(ctx context.Context, log *service.ProcessingLog) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if log == nil {
		return fmt.Errorf("%w: log", ErrNilParameter)
	}
	if err := validateString(log.EntryID, "entryID"); err != nil {
		return err
	}
	if err := validateString(log.Stage, "stage"); err != nil {
		return err
	}
	if log.Status == "" {
		log.Status = "completed"
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_logs (entry_id, stage, status, confidence, duration_ms, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		log.EntryID,
		log.Stage,
		log.Status,
		log.Confidence,
		log.Duration.Milliseconds(),
		nullString(log.ErrorMessage),
		log.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert processing log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get processing log id: %w", err)
	}
	log.ID = id
	return nil
}

// GetProcessingLogs returns the logs of an entry in insertion order.
func (s *SQLiteStorage) GetProcessingLogs(ctx context.Context, entryID string) ([]service.ProcessingLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(entryID, "entryID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, stage, status, confidence, duration_ms, error_message, created_at
		FROM processing_logs
		WHERE entry_id = ?
		ORDER BY id
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []service.ProcessingLog
	for rows.Next() {
		var (
			log        service.ProcessingLog
			durationMS int64
			errMessage sql.NullString
		)
		if err := rows.Scan(
			&log.ID,
			&log.EntryID,
			&log.Stage,
			&log.Status,
			&log.Confidence,
			&durationMS,
			&errMessage,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan processing log: %w", err)
		}
		log.Duration = time.Duration(durationMS) * time.Millisecond
		log.ErrorMessage = errMessage.String
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processing logs: %w", err)
	}
	return logs, nil
}
