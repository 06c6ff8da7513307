package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/application/dispatcher"
	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/internal/domain/event"
	"github.com/garyjia/travel-expense-portal/internal/domain/reconcile"
	"github.com/google/uuid"
)

// MsgReceiptFailed is the notice shown when a receipt cannot be read
const MsgReceiptFailed = "Could not analyze receipt/document. Please try again."

// RecurringFilter selects items by their recurring flag
type RecurringFilter string

const (
	RecurringAll RecurringFilter = "ALL"
	RecurringYes RecurringFilter = "YES"
	RecurringNo  RecurringFilter = "NO"
)

// ItemFilter narrows the ledger view. Zero values match everything; dates are
// inclusive ISO bounds compared as strings.
type ItemFilter struct {
	DateFrom  string          `json:"date_from" form:"date_from"`
	DateTo    string          `json:"date_to" form:"date_to"`
	Category  string          `json:"category" form:"category"`
	Recurring RecurringFilter `json:"recurring" form:"recurring"`
}

// Matches reports whether item passes every active criterion
func (f ItemFilter) Matches(item entity.ExpenseLineItem) bool {
	if f.DateFrom != "" && item.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && item.Date > f.DateTo {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	switch f.Recurring {
	case RecurringYes:
		return item.IsRecurring
	case RecurringNo:
		return !item.IsRecurring
	}
	return true
}

// LedgerOption configures a LineItemLedger
type LedgerOption func(*LineItemLedger)

// WithLedgerLogger sets the ledger logger
func WithLedgerLogger(logger port.Logger) LedgerOption {
	return func(l *LineItemLedger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLedgerDispatcher publishes ledger events through d
func WithLedgerDispatcher(d dispatcher.Dispatcher) LedgerOption {
	return func(l *LineItemLedger) {
		l.dispatcher = d
	}
}

// WithIDGenerator replaces the line item id generator
func WithIDGenerator(fn func() string) LedgerOption {
	return func(l *LineItemLedger) {
		l.newID = fn
	}
}

// LineItemLedger owns the line items of one expense claim. Extraction results
// always become new items; they are never merged into existing ones.
type LineItemLedger struct {
	registry   *CategoryRegistry
	extractor  port.ReceiptExtractor
	summarizer port.Summarizer
	exporter   port.ClaimExporter
	clock      port.Clock
	logger     port.Logger
	dispatcher dispatcher.Dispatcher
	newID      func() string
	notices    noticeBoard

	mu         sync.Mutex
	items      []entity.ExpenseLineItem
	summary    string
	hasSummary bool
}

// NewLineItemLedger creates an empty ledger. exporter may be nil.
func NewLineItemLedger(
	registry *CategoryRegistry,
	extractor port.ReceiptExtractor,
	summarizer port.Summarizer,
	exporter port.ClaimExporter,
	clock port.Clock,
	opts ...LedgerOption,
) *LineItemLedger {
	l := &LineItemLedger{
		registry:   registry,
		extractor:  extractor,
		summarizer: summarizer,
		exporter:   exporter,
		clock:      clock,
		logger:     port.NopLogger{},
		newID:      newItemID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// newItemID mints a time-ordered id
func newItemID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (l *LineItemLedger) today() string {
	return l.clock.Now().Format(entity.DateLayout)
}

// Registry returns the category registry shared by the ledger
func (l *LineItemLedger) Registry() *CategoryRegistry {
	return l.registry
}

// Items returns every item in insertion order
func (l *LineItemLedger) Items() []entity.ExpenseLineItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]entity.ExpenseLineItem{}, l.items...)
}

// Notices returns the undismissed notices, oldest first
func (l *LineItemLedger) Notices() []Notice {
	return l.notices.list()
}

// DismissNotice removes a notice, reporting whether it existed
func (l *LineItemLedger) DismissNotice(id string) bool {
	return l.notices.dismiss(id)
}

// AddManual appends a blank item dated today
func (l *LineItemLedger) AddManual(ctx context.Context) entity.ExpenseLineItem {
	item := entity.ExpenseLineItem{
		ID:       l.newID(),
		Date:     l.today(),
		Category: entity.DefaultCategory,
		Currency: entity.DefaultCurrency,
	}
	l.append(ctx, item, "manual")
	return item
}

// AddFromExtraction appends a new item built from a receipt extraction.
// Unset fields take their defaults and an unregistered category falls back
// to the default label.
func (l *LineItemLedger) AddFromExtraction(ctx context.Context, patch entity.ReceiptPatch) entity.ExpenseLineItem {
	item := entity.ExpenseLineItem{
		ID:            l.newID(),
		Date:          l.today(),
		Merchant:      strings.TrimSpace(patch.Merchant),
		VendorAddress: strings.TrimSpace(patch.VendorAddress),
		PaymentMethod: strings.TrimSpace(patch.PaymentMethod),
		Description:   entity.DefaultItemDescription,
		Category:      entity.DefaultCategory,
		Currency:      entity.DefaultCurrency,
	}
	if _, err := time.Parse(entity.DateLayout, strings.TrimSpace(patch.Date)); err == nil {
		item.Date = strings.TrimSpace(patch.Date)
	}
	if len(patch.LineItems) > 0 && strings.TrimSpace(patch.LineItems[0].Description) != "" {
		item.Description = strings.TrimSpace(patch.LineItems[0].Description)
	}
	if l.registry.Contains(patch.Category) {
		item.Category = patch.Category
	}
	if reconcile.UsableAmount(patch.Total) {
		item.Amount = *patch.Total
	}
	if reconcile.UsableAmount(patch.TaxAmount) {
		item.TaxAmount = *patch.TaxAmount
	}
	if c := strings.TrimSpace(patch.Currency); c != "" {
		item.Currency = strings.ToUpper(c)
	}

	l.append(ctx, item, "receipt")
	return item
}

func (l *LineItemLedger) append(ctx context.Context, item entity.ExpenseLineItem, source string) {
	l.mu.Lock()
	l.items = append(l.items, item)
	l.mu.Unlock()

	l.logger.Info("Line item added", "id", item.ID, "source", source, "amount", item.Amount)
	l.publish(ctx, event.NewEvent(event.TypeLineItemAdded, item.ID, map[string]interface{}{
		"source":   source,
		"category": item.Category,
		"amount":   item.Amount,
	}, l.clock.Now()))
}

// Ingest reads a receipt with the extractor and appends the result. A nil item
// with a nil error means the extractor found nothing.
func (l *LineItemLedger) Ingest(ctx context.Context, data []byte, mimeType string) (*entity.ExpenseLineItem, error) {
	patch, err := l.extractor.ExtractReceipt(ctx, data, mimeType)
	if err != nil {
		l.logger.Error("Receipt extraction failed", "mime_type", mimeType, "error", err)
		l.notices.add(MsgReceiptFailed, l.clock.Now())
		l.publish(ctx, event.NewEvent(event.TypeExtractionFailed, "receipt", map[string]interface{}{
			"error": err.Error(),
		}, l.clock.Now()))
		return nil, err
	}
	if patch == nil || patch.IsEmpty() {
		return nil, nil
	}
	item := l.AddFromExtraction(ctx, *patch)
	return &item, nil
}

// Update sets one field of an item. Amounts are stored as typed and only
// rounded by Commit. Setting an unregistered category registers it.
func (l *LineItemLedger) Update(ctx context.Context, id string, field entity.ItemField, value any) (entity.ExpenseLineItem, error) {
	l.mu.Lock()
	exists := l.indexLocked(id) >= 0
	l.mu.Unlock()
	if !exists {
		return entity.ExpenseLineItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	if field == entity.ItemFieldCategory {
		label, err := asString(value)
		if err != nil {
			return entity.ExpenseLineItem{}, fmt.Errorf("update %s: %w", field, err)
		}
		if strings.TrimSpace(label) == "" {
			return entity.ExpenseLineItem{}, fmt.Errorf("update %s: %w: empty category", field, ErrInvalidValue)
		}
		added, err := l.registry.Register(ctx, label)
		if err != nil {
			l.logger.Error("Category kept in memory only", "label", label, "error", err)
		}
		if added {
			l.publish(ctx, event.NewEvent(event.TypeCategoryRegistered, label, nil, l.clock.Now()))
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexLocked(id)
	if idx < 0 {
		return entity.ExpenseLineItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	next := l.items[idx]
	if err := setItemField(&next, field, value); err != nil {
		return entity.ExpenseLineItem{}, fmt.Errorf("update %s: %w", field, err)
	}
	l.items[idx] = next
	return next, nil
}

// Commit normalises a numeric field to two decimal places, as done when an
// amount input loses focus. Non-numeric fields are returned unchanged.
func (l *LineItemLedger) Commit(id string, field entity.ItemField) (entity.ExpenseLineItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexLocked(id)
	if idx < 0 {
		return entity.ExpenseLineItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	switch field {
	case entity.ItemFieldAmount:
		l.items[idx].Amount = roundMoney(l.items[idx].Amount)
	case entity.ItemFieldTaxAmount:
		l.items[idx].TaxAmount = roundMoney(l.items[idx].TaxAmount)
	}
	return l.items[idx], nil
}

// Remove deletes an item
func (l *LineItemLedger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	l.mu.Unlock()

	l.publish(ctx, event.NewEvent(event.TypeLineItemRemoved, id, nil, l.clock.Now()))
	return nil
}

// RegisterCategory adds a label to the registry, reporting whether it was new
func (l *LineItemLedger) RegisterCategory(ctx context.Context, label string) (bool, error) {
	added, err := l.registry.Register(ctx, label)
	if added {
		l.publish(ctx, event.NewEvent(event.TypeCategoryRegistered, label, nil, l.clock.Now()))
	}
	return added, err
}

// Filter returns the items matching f in ledger order
func (l *LineItemLedger) Filter(f ItemFilter) []entity.ExpenseLineItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	view := make([]entity.ExpenseLineItem, 0, len(l.items))
	for _, item := range l.items {
		if f.Matches(item) {
			view = append(view, item)
		}
	}
	return view
}

// Summarize asks the summarizer for a narrative of every item and keeps the
// result. An empty ledger is not sent.
func (l *LineItemLedger) Summarize(ctx context.Context) (string, bool) {
	items := l.Items()
	if len(items) == 0 {
		return "", false
	}

	lines := make([]port.SummaryLine, 0, len(items))
	for _, item := range items {
		currency := item.Currency
		if currency == "" {
			currency = entity.DefaultCurrency
		}
		lines = append(lines, port.SummaryLine{
			Category:    item.Category,
			Amount:      item.Amount,
			Description: item.Description,
			Merchant:    item.Merchant,
			Currency:    currency,
		})
	}

	summary, ok := l.summarizer.Summarize(ctx, lines)

	l.mu.Lock()
	l.summary, l.hasSummary = summary, ok
	l.mu.Unlock()
	return summary, ok
}

// Summary returns the last summary produced by Summarize
func (l *LineItemLedger) Summary() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary, l.hasSummary
}

// Export renders the filtered view with its total
func (l *LineItemLedger) Export(ctx context.Context, f ItemFilter) ([]byte, error) {
	if l.exporter == nil {
		return nil, ErrNoExporter
	}

	view := l.Filter(f)
	summary, _ := l.Summary()
	sheet := port.ClaimSheet{
		Items:       view,
		Total:       Total(view).StringFixed(moneyPlaces),
		Summary:     summary,
		GeneratedAt: l.clock.Now(),
	}

	data, err := l.exporter.Export(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("export claim: %w", err)
	}

	l.publish(ctx, event.NewEvent(event.TypeClaimExported, "claim", map[string]interface{}{
		"rows":  len(view),
		"total": sheet.Total,
	}, sheet.GeneratedAt))
	return data, nil
}

// ExportContentType returns the MIME type of Export's output
func (l *LineItemLedger) ExportContentType() string {
	if l.exporter == nil {
		return ""
	}
	return l.exporter.ContentType()
}

func (l *LineItemLedger) indexLocked(id string) int {
	for i, item := range l.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (l *LineItemLedger) publish(ctx context.Context, evt *event.Event) {
	if l.dispatcher == nil {
		return
	}
	l.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
}

func setItemField(item *entity.ExpenseLineItem, field entity.ItemField, value any) error {
	if field.IsNumeric() {
		v, err := asNumber(value)
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("%w: amount cannot be negative", ErrInvalidValue)
		}
		if field == entity.ItemFieldAmount {
			item.Amount = v
		} else {
			item.TaxAmount = v
		}
		return nil
	}
	if field == entity.ItemFieldIsRecurring {
		v, err := asBool(value)
		if err != nil {
			return err
		}
		item.IsRecurring = v
		return nil
	}

	v, err := asString(value)
	if err != nil {
		return err
	}
	switch field {
	case entity.ItemFieldDate:
		if _, err := time.Parse(entity.DateLayout, v); err != nil {
			return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidValue, v)
		}
		item.Date = v
	case entity.ItemFieldMerchant:
		item.Merchant = v
	case entity.ItemFieldVendorAddress:
		item.VendorAddress = v
	case entity.ItemFieldPaymentMethod:
		item.PaymentMethod = v
	case entity.ItemFieldDescription:
		item.Description = v
	case entity.ItemFieldCategory:
		item.Category = v
	case entity.ItemFieldCurrency:
		item.Currency = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}
