package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// Result summarizes a finished review.
type Result struct {
	Reviewed int
	Updated  int
}

// Run shows the review until the user quits or ctx is canceled.
func Run(ctx context.Context, entries []model.SpendingEntry, store EntryUpdater, suggest SuggestFunc) (Result, error) {
	program := tea.NewProgram(
		NewReviewModel(ctx, entries, store, suggest),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	final, err := program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("review ended unexpectedly: %w", err)
	}

	result := Result{Reviewed: len(entries)}
	if m, ok := final.(ReviewModel); ok {
		result.Updated = m.Updated()
	}
	return result, nil
}
