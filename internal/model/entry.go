package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntrySource identifies which input path produced an entry.
type EntrySource string

const (
	// SourceText is free text typed or dictated by the user.
	SourceText EntrySource = "text"
	// SourceReceipt is text recognized from a receipt image.
	SourceReceipt EntrySource = "receipt"
	// SourceBatch is a row of a structured import.
	SourceBatch EntrySource = "batch"
)

// Processing methods recorded on assembled entries.
const (
	MethodNLP        = "nlp"
	MethodNLPAI      = "nlp+ai"
	MethodOCRNLP     = "ocr+nlp"
	MethodOCRNLPAI   = "ocr+nlp+ai"
	MethodBatchNLP   = "batch_nlp"
	MethodBatchNLPAI = "batch_nlp+ai"
	MethodAIDirect   = "ai_direct"
)

// SpendingEntry is the final, fully populated spending record.
type SpendingEntry struct {
	Date             time.Time       `json:"date"`
	CreatedAt        time.Time       `json:"created_at"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
	ID               string          `json:"id"`
	Merchant         string          `json:"merchant"`
	Category         Category        `json:"category"`
	Subcategory      string          `json:"subcategory,omitempty"`
	Description      string          `json:"description"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	ProcessingMethod string          `json:"processing_method"`
	RawText          string          `json:"raw_text"`
	Amount           decimal.Decimal `json:"amount"`
	Confidence       float64         `json:"confidence"`
}

// GenerateHash creates a stable hash for duplicate detection on import.
func (e *SpendingEntry) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		e.Date.Format("2006-01-02"),
		e.Amount.StringFixed(2),
		e.Merchant,
		e.RawText)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
