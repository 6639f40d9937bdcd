package engine

import (
	"context"
	"sync"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

// MockEnhancer is a test implementation of the Enhancer interface. It returns
// a fixed result or error and records every request.
type MockEnhancer struct {
	Err       error
	Result    model.ExtractionResult
	ModelName string
	requests  []service.EnhanceRequest
	mu        sync.Mutex
	// Unavailable makes Available report false.
	Unavailable bool
	// Block makes Enhance wait for its context to end.
	Block bool
}

// NewMockEnhancer creates a mock that answers with result.
func NewMockEnhancer(result model.ExtractionResult) *MockEnhancer {
	return &MockEnhancer{Result: result, ModelName: "mock-model"}
}

// Enhance records req and returns the configured result.
func (m *MockEnhancer) Enhance(ctx context.Context, req service.EnhanceRequest) (model.ExtractionResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	block, err, result := m.Block, m.Err, m.Result
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return model.ExtractionResult{}, ctx.Err()
	}
	if err != nil {
		return model.ExtractionResult{}, err
	}
	return result.Clone(), nil
}

// Available reports whether the mock accepts requests.
func (m *MockEnhancer) Available(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.Unavailable
}

// Model returns the configured model name.
func (m *MockEnhancer) Model() string {
	return m.ModelName
}

// Requests returns a copy of the recorded requests.
func (m *MockEnhancer) Requests() []service.EnhanceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]service.EnhanceRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// MockRecognizer is a test implementation of the TextRecognizer interface.
type MockRecognizer struct {
	Err    error
	Result service.OCRResult
	calls  int
	mu     sync.Mutex
}

// ExtractText returns the configured result.
func (m *MockRecognizer) ExtractText(_ context.Context, _ []byte) (service.OCRResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return service.OCRResult{}, m.Err
	}
	return m.Result, nil
}

// Calls returns how many times ExtractText ran.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
