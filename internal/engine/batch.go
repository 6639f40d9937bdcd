package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/pattern"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

type batchResult struct {
	entry model.SpendingEntry
	index int
}

// ProcessBatch turns structured import rows into spending entries. Rows are
// processed by a bounded worker pool; the output keeps the input order.
func (e *Engine) ProcessBatch(ctx context.Context, req BatchRequest) ([]model.SpendingEntry, error) {
	started := time.Now()
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("%w: batch has no rows", common.ErrInvalidInput)
	}

	workers := e.config.BatchWorkers
	if workers > len(req.Rows) {
		workers = len(req.Rows)
	}

	workChan := make(chan int, len(req.Rows))
	for i := range req.Rows {
		workChan <- i
	}
	close(workChan)

	resultsChan := make(chan batchResult, len(req.Rows))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for index := range workChan {
				resultsChan <- batchResult{
					index: index,
					entry: e.processRow(ctx, req, index),
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	entries := make([]model.SpendingEntry, len(req.Rows))
	done := 0
	for result := range resultsChan {
		entries[result.index] = result.entry
		done++
		if req.Progress != nil {
			req.Progress(done)
		}
	}

	e.logger.Info("Batch processed",
		"rows", len(entries),
		"workers", workers,
		"duration", time.Since(started))

	if req.Save {
		for i := range entries {
			if err := e.persist(ctx, &entries[i], "batch", started); err != nil {
				return entries[:i], fmt.Errorf("row %d: %w", i+1, err)
			}
		}
	}
	return entries, nil
}

// processRow maps one row and optionally enhances it. A cancelled context
// only skips the AI step; the local entry is still assembled.
func (e *Engine) processRow(ctx context.Context, req BatchRequest, index int) model.SpendingEntry {
	row := req.Rows[index]
	result := e.extractor.ExtractRow(row)
	columns := req.Columns
	if len(columns) == 0 {
		columns = slices.Sorted(maps.Keys(row))
	}
	rawText := pattern.RowText(row, columns)

	if req.EnhanceWithAI && rawText != "" {
		threshold := e.config.Thresholds.BatchEnhance
		aiAvailable := result.Confidence < threshold && e.enhancer != nil && e.enhancer.Available(ctx)
		decision := Decide(result.Confidence, threshold, aiAvailable, true)
		if decision.Outcome == AIEnhanced {
			lang := pattern.DetectLanguage(rawText)
			result = e.enhance(ctx, result, rawText, lang, service.ModeEnhance)
		}
	}

	entry := e.assembler.Assemble(result, rawText, EntryContext{
		Source:    model.SourceBatch,
		RowNumber: index + 1,
	})
	e.metrics.ObserveExtraction(entry.ProcessingMethod, entry.Confidence)
	return entry
}
