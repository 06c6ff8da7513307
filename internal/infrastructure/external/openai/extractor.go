// Package openai implements the trip, receipt and summary extraction ports on
// the OpenAI chat completions API.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/document"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Operation labels reported to the OutcomeRecorder
const (
	OpTrip    = "trip"
	OpReceipt = "receipt"
	OpSummary = "summary"
)

// Outcome labels reported to the OutcomeRecorder
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
	OutcomeDisabled = "disabled"
)

const defaultTimeout = 60 * time.Second

// ChatCompleter is the subset of *openai.Client used by the extractor
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Rasterizer renders the first page of a PDF to a JPEG image
type Rasterizer interface {
	FirstPageJPEG(data []byte) ([]byte, error)
}

// OutcomeRecorder observes the result of every extraction call
type OutcomeRecorder func(operation, outcome string)

// Config holds connection settings for the OpenAI API
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     time.Duration
}

// Option configures an Extractor
type Option func(*Extractor)

// WithChatCompleter replaces the API client built from Config
func WithChatCompleter(c ChatCompleter) Option {
	return func(e *Extractor) { e.client = c }
}

// WithRasterizer enables PDF receipts
func WithRasterizer(r Rasterizer) Option {
	return func(e *Extractor) { e.rasterizer = r }
}

// WithOutcomeRecorder registers an observer for call outcomes
func WithOutcomeRecorder(r OutcomeRecorder) Option {
	return func(e *Extractor) { e.record = r }
}

// Extractor implements port.TripExtractor, port.ReceiptExtractor and
// port.Summarizer. With no API key configured every call is a silent no-op.
type Extractor struct {
	client     ChatCompleter
	rasterizer Rasterizer
	prompts    *PromptConfig
	cfg        Config
	record     OutcomeRecorder
	logger     *zap.Logger
}

var (
	_ port.TripExtractor    = (*Extractor)(nil)
	_ port.ReceiptExtractor = (*Extractor)(nil)
	_ port.Summarizer       = (*Extractor)(nil)
)

// NewExtractor creates an extractor. A nil prompts uses the built-in catalogue.
func NewExtractor(cfg Config, prompts *PromptConfig, logger *zap.Logger, opts ...Option) *Extractor {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}

	e := &Extractor{
		prompts: prompts,
		cfg:     cfg,
		record:  func(string, string) {},
		logger:  logger,
	}
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		e.client = openai.NewClientWithConfig(clientCfg)
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		logger.Warn("OpenAI API key missing, extraction disabled")
	}
	return e
}

// Enabled reports whether calls reach the API
func (e *Extractor) Enabled() bool {
	return e.client != nil
}

// ExtractTrip suggests trip fields from a free-text description
func (e *Extractor) ExtractTrip(ctx context.Context, text string, today time.Time) (*entity.TripPatch, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if !e.Enabled() {
		e.record(OpTrip, OutcomeDisabled)
		return nil, nil
	}

	p := e.prompts.TripExtraction
	user, err := renderTemplate(p.UserTemplate, map[string]string{
		"Today":   today.Format(entity.DateLayout),
		"Request": text,
	})
	if err != nil {
		e.record(OpTrip, OutcomeFailed)
		return nil, fmt.Errorf("%w: %v", port.ErrExtractionFailed, err)
	}

	content, err := e.complete(ctx, e.cfg.Model, p, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	}, true)
	if err != nil {
		e.logger.Error("Trip extraction failed", zap.Error(err))
		e.record(OpTrip, OutcomeFailed)
		return nil, fmt.Errorf("%w: %v", port.ErrExtractionFailed, err)
	}

	var resp tripResponse
	ok, err := decodeResponse(content, &resp)
	if err != nil {
		e.logger.Error("Trip extraction returned unparsable data", zap.Error(err), zap.String("content", content))
		e.record(OpTrip, OutcomeFailed)
		return nil, err
	}
	patch := resp.toPatch()
	if !ok || patch.IsEmpty() {
		e.record(OpTrip, OutcomeEmpty)
		return nil, nil
	}

	e.logger.Info("Trip details extracted",
		zap.String("destination_city", patch.DestinationCity),
		zap.String("departure_date", patch.DepartureDate),
		zap.String("return_date", patch.ReturnDate))
	e.record(OpTrip, OutcomeOK)
	return patch, nil
}

// ExtractReceipt suggests line item fields from a receipt image or PDF
func (e *Extractor) ExtractReceipt(ctx context.Context, data []byte, mimeType string) (*entity.ReceiptPatch, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if !e.Enabled() {
		e.record(OpReceipt, OutcomeDisabled)
		return nil, nil
	}

	image, imageType, err := e.prepareImage(data, mimeType)
	if err != nil {
		e.logger.Error("Receipt could not be prepared", zap.String("mime_type", mimeType), zap.Error(err))
		e.record(OpReceipt, OutcomeFailed)
		return nil, fmt.Errorf("%w: %v", port.ErrExtractionFailed, err)
	}

	p := e.prompts.ReceiptExtraction
	prompt, err := renderTemplate(p.UserTemplate, map[string]string{
		"Categories": strings.Join(entity.BuiltinCategories, ", "),
	})
	if err != nil {
		e.record(OpReceipt, OutcomeFailed)
		return nil, fmt.Errorf("%w: %v", port.ErrExtractionFailed, err)
	}

	e.logger.Debug("Sending receipt to vision model",
		zap.String("mime_type", imageType),
		zap.Int("size_bytes", len(image)))

	content, err := e.complete(ctx, e.cfg.VisionModel, p, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    fmt.Sprintf("data:%s;base64,%s", imageType, base64.StdEncoding.EncodeToString(image)),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		},
	}, true)
	if err != nil {
		e.logger.Error("Receipt extraction failed", zap.Error(err))
		e.record(OpReceipt, OutcomeFailed)
		return nil, fmt.Errorf("%w: %v", port.ErrExtractionFailed, err)
	}

	var resp receiptResponse
	ok, err := decodeResponse(content, &resp)
	if err != nil {
		e.logger.Error("Receipt extraction returned unparsable data", zap.Error(err), zap.String("content", content))
		e.record(OpReceipt, OutcomeFailed)
		return nil, err
	}
	patch := resp.toPatch()
	if !ok || patch.IsEmpty() {
		e.record(OpReceipt, OutcomeEmpty)
		return nil, nil
	}

	e.logger.Info("Receipt extracted",
		zap.String("merchant", patch.Merchant),
		zap.String("date", patch.Date),
		zap.Int("line_items", len(patch.LineItems)))
	e.record(OpReceipt, OutcomeOK)
	return patch, nil
}

// Summarize writes a short narrative for lines. Failures are logged and
// reported as ok == false.
func (e *Extractor) Summarize(ctx context.Context, lines []port.SummaryLine) (string, bool) {
	if len(lines) == 0 {
		return "", false
	}
	if !e.Enabled() {
		e.record(OpSummary, OutcomeDisabled)
		return "", false
	}

	items, err := json.Marshal(lines)
	if err != nil {
		e.record(OpSummary, OutcomeFailed)
		return "", false
	}

	p := e.prompts.ExpenseSummary
	user, err := renderTemplate(p.UserTemplate, map[string]string{"Items": string(items)})
	if err != nil {
		e.logger.Error("Summary prompt failed to render", zap.Error(err))
		e.record(OpSummary, OutcomeFailed)
		return "", false
	}

	content, err := e.complete(ctx, e.cfg.Model, p, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	}, false)
	if err != nil {
		e.logger.Error("Summary generation failed", zap.Error(err))
		e.record(OpSummary, OutcomeFailed)
		return "", false
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		e.record(OpSummary, OutcomeEmpty)
		return "", false
	}
	e.record(OpSummary, OutcomeOK)
	return summary, true
}

func (e *Extractor) complete(ctx context.Context, model string, p Prompt, user openai.ChatCompletionMessage, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			user,
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// prepareImage returns an image the vision model accepts and its mime type
func (e *Extractor) prepareImage(data []byte, mimeType string) ([]byte, string, error) {
	if !document.IsPDF(mimeType, data) {
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		return data, mimeType, nil
	}
	if e.rasterizer == nil {
		return nil, "", errors.New("pdf receipts are not supported without a rasterizer")
	}
	img, err := e.rasterizer.FirstPageJPEG(data)
	if err != nil {
		return nil, "", err
	}
	return img, "image/jpeg", nil
}
