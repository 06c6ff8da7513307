package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
)

// ErrExtractionFailed marks an extraction call that errored or returned data
// outside the response schema. A nil patch with a nil error means the service
// had nothing to suggest.
var ErrExtractionFailed = errors.New("extraction failed")

// TripExtractor turns a free-text trip description into suggested fields
type TripExtractor interface {
	ExtractTrip(ctx context.Context, text string, today time.Time) (*entity.TripPatch, error)
}

// ReceiptExtractor turns a receipt image or PDF into suggested line item fields
type ReceiptExtractor interface {
	ExtractReceipt(ctx context.Context, data []byte, mimeType string) (*entity.ReceiptPatch, error)
}

// SummaryLine is one expense as sent to the summary request
type SummaryLine struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Merchant    string  `json:"merchant"`
	Currency    string  `json:"currency"`
}

// Summarizer writes a short narrative for a set of expenses. It never fails
// loudly; ok is false when no summary could be produced.
type Summarizer interface {
	Summarize(ctx context.Context, lines []SummaryLine) (summary string, ok bool)
}

// SubmissionNotifier tells an approver about a submitted travel request
type SubmissionNotifier interface {
	NotifySubmission(ctx context.Context, sub entity.TripSubmission) error
}

// ClaimSheet is the data rendered by a ClaimExporter
type ClaimSheet struct {
	Items       []entity.ExpenseLineItem
	Total       string
	Summary     string
	GeneratedAt time.Time
}

// ClaimExporter renders a claim into a downloadable document
type ClaimExporter interface {
	Export(ctx context.Context, sheet ClaimSheet) ([]byte, error)
	ContentType() string
}
