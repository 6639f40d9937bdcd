// Package storage provides the SQLite persistence layer for spending entries
// and their processing logs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidEntry     = errors.New("invalid spending entry")
	ErrInvalidUpdate    = errors.New("invalid entry update")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntry validates a spending entry before it is written.
func validateEntry(entry *model.SpendingEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if entry.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidEntry)
	}
	if entry.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidEntry)
	}
	if entry.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEntry)
	}
	if entry.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s", ErrInvalidEntry, entry.Amount)
	}
	if !entry.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidEntry, entry.Category)
	}
	if entry.Confidence < 0 || entry.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidEntry, entry.Confidence)
	}
	return nil
}

// validateUpdate validates a partial entry update.
func validateUpdate(update service.EntryUpdate) error {
	if update.Merchant == nil && update.Category == nil && update.Subcategory == nil &&
		update.Description == nil && update.Confidence == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidUpdate)
	}
	if update.Merchant != nil && strings.TrimSpace(*update.Merchant) == "" {
		return fmt.Errorf("%w: empty merchant", ErrInvalidUpdate)
	}
	if update.Category != nil && !update.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidUpdate, *update.Category)
	}
	if update.Confidence != nil && (*update.Confidence < 0 || *update.Confidence > 1) {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidUpdate, *update.Confidence)
	}
	return nil
}

// validateFilter validates list filter bounds.
func validateFilter(filter service.EntryFilter) error {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}
	if filter.Category != nil && !filter.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", common.ErrInvalidInput, *filter.Category)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return fmt.Errorf("%w: negative limit or offset", common.ErrInvalidInput)
	}
	return nil
}
