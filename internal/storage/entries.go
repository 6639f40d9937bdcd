package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

const entryColumns = `id, amount, merchant, category, subcategory, description, date,
	payment_method, confidence, processing_method, raw_text, metadata, created_at`

// SaveEntry stores a new entry. An entry with the same date, amount, merchant
// and raw text as a stored one is rejected with common.ErrDuplicateEntry.
func (s *SQLiteStorage) SaveEntry(ctx context.Context, entry *model.SpendingEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO spending_entries (
			id, hash, amount, merchant, category, subcategory, description, date,
			payment_method, confidence, processing_method, raw_text, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.GenerateHash(),
		entry.Amount.String(),
		entry.Merchant,
		string(entry.Category),
		nullString(entry.Subcategory),
		entry.Description,
		entry.Date.UTC(),
		nullString(string(entry.PaymentMethod)),
		entry.Confidence,
		entry.ProcessingMethod,
		entry.RawText,
		metadata,
		createdAt.UTC(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
			return fmt.Errorf("%w: entry %s", common.ErrDuplicateEntry, entry.ID)
		}
		return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
	}
	return nil
}

// GetEntry retrieves a single entry by ID.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*model.SpendingEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM spending_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns entries matching filter, newest first.
func (s *SQLiteStorage) ListEntries(ctx context.Context, filter service.EntryFilter) ([]model.SpendingEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []any
	)
	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if filter.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, string(*filter.Category))
	}

	query := `SELECT ` + entryColumns + ` FROM spending_entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.SpendingEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// UpdateEntry applies the non-nil fields of update to the entry.
func (s *SQLiteStorage) UpdateEntry(ctx context.Context, id string, update service.EntryUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateUpdate(update); err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	if update.Merchant != nil {
		sets = append(sets, "merchant = ?")
		args = append(args, strings.TrimSpace(*update.Merchant))
	}
	if update.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, string(*update.Category))
	}
	if update.Subcategory != nil {
		sets = append(sets, "subcategory = ?")
		args = append(args, nullString(*update.Subcategory))
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Confidence != nil {
		sets = append(sets, "confidence = ?")
		args = append(args, *update.Confidence)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE spending_entries SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return requireAffected(result, id)
}

// DeleteEntry removes an entry and its processing logs.
func (s *SQLiteStorage) DeleteEntry(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM processing_logs WHERE entry_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete processing logs: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM spending_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetStatistics summarizes all stored entries.
func (s *SQLiteStorage) GetStatistics(ctx context.Context) (*service.Statistics, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT amount, category, processing_method, confidence FROM spending_entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := &service.Statistics{
		MethodBreakdown:   make(map[string]int),
		CategoryBreakdown: make(map[model.Category]int),
		TotalAmount:       decimal.Zero,
	}
	var confidenceSum float64
	for rows.Next() {
		var (
			amount, category, method string
			confidence               float64
		)
		if err := rows.Scan(&amount, &category, &method, &confidence); err != nil {
			return nil, fmt.Errorf("failed to scan statistics row: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		stats.TotalEntries++
		stats.TotalAmount = stats.TotalAmount.Add(value)
		stats.MethodBreakdown[method]++
		stats.CategoryBreakdown[model.Category(category)]++
		confidenceSum += confidence
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statistics: %w", err)
	}

	if stats.TotalEntries > 0 {
		stats.AverageConfidence = confidenceSum / float64(stats.TotalEntries)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.SpendingEntry, error) {
	var (
		entry                               model.SpendingEntry
		amount, category                    string
		subcategory, paymentMethod, rawText sql.NullString
		metadata                            sql.NullString
	)
	err := row.Scan(
		&entry.ID,
		&amount,
		&entry.Merchant,
		&category,
		&subcategory,
		&entry.Description,
		&entry.Date,
		&paymentMethod,
		&entry.Confidence,
		&entry.ProcessingMethod,
		&rawText,
		&metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	entry.Category = model.Category(category)
	entry.Subcategory = subcategory.String
	entry.PaymentMethod = model.PaymentMethod(paymentMethod.String)
	entry.RawText = rawText.String

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
	}
	return &entry, nil
}

func encodeMetadata(metadata map[string]any) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: entry %s", common.ErrNotFound, id)
	}
	return nil
}
