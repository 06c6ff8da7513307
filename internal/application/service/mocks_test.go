package service

import (
	"context"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockTripExtractor mocks port.TripExtractor
type MockTripExtractor struct {
	mock.Mock
}

func (m *MockTripExtractor) ExtractTrip(ctx context.Context, text string, today time.Time) (*entity.TripPatch, error) {
	args := m.Called(ctx, text, today)
	patch, _ := args.Get(0).(*entity.TripPatch)
	return patch, args.Error(1)
}

// MockReceiptExtractor mocks port.ReceiptExtractor
type MockReceiptExtractor struct {
	mock.Mock
}

func (m *MockReceiptExtractor) ExtractReceipt(ctx context.Context, data []byte, mimeType string) (*entity.ReceiptPatch, error) {
	args := m.Called(ctx, data, mimeType)
	patch, _ := args.Get(0).(*entity.ReceiptPatch)
	return patch, args.Error(1)
}

// MockSummarizer mocks port.Summarizer
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, lines []port.SummaryLine) (string, bool) {
	args := m.Called(ctx, lines)
	return args.String(0), args.Bool(1)
}

// fakeExporter records the last sheet it rendered
type fakeExporter struct {
	sheet port.ClaimSheet
	err   error
}

func (f *fakeExporter) Export(ctx context.Context, sheet port.ClaimSheet) ([]byte, error) {
	f.sheet = sheet
	if f.err != nil {
		return nil, f.err
	}
	return []byte("xlsx"), nil
}

func (f *fakeExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func ptr[T any](v T) *T { return &v }
