package http

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-expense-portal/internal/application/service"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
)

// ClaimService is the expense claim ledger driven by the claim endpoints
type ClaimService interface {
	Registry() *service.CategoryRegistry
	Items() []entity.ExpenseLineItem
	Notices() []service.Notice
	DismissNotice(id string) bool
	AddManual(ctx context.Context) entity.ExpenseLineItem
	Ingest(ctx context.Context, data []byte, mimeType string) (*entity.ExpenseLineItem, error)
	Update(ctx context.Context, id string, field entity.ItemField, value any) (entity.ExpenseLineItem, error)
	Commit(id string, field entity.ItemField) (entity.ExpenseLineItem, error)
	Remove(ctx context.Context, id string) error
	RegisterCategory(ctx context.Context, label string) (bool, error)
	Filter(f service.ItemFilter) []entity.ExpenseLineItem
	Summarize(ctx context.Context) (string, bool)
	Summary() (string, bool)
	Export(ctx context.Context, f service.ItemFilter) ([]byte, error)
	ExportContentType() string
}

// ItemsResponse is a filtered ledger view with its total
type ItemsResponse struct {
	Items []entity.ExpenseLineItem `json:"items"`
	Total string                   `json:"total"`
}

type filterQuery struct {
	DateFrom  string `form:"date_from" binding:"omitempty,isodate"`
	DateTo    string `form:"date_to" binding:"omitempty,isodate"`
	Category  string `form:"category"`
	Recurring string `form:"recurring" binding:"omitempty,oneof=ALL YES NO"`
}

func (q filterQuery) toFilter() service.ItemFilter {
	return service.ItemFilter{
		DateFrom:  q.DateFrom,
		DateTo:    q.DateTo,
		Category:  q.Category,
		Recurring: service.RecurringFilter(q.Recurring),
	}
}

type updateItemRequest struct {
	Field entity.ItemField `json:"field" binding:"required"`
	Value interface{}      `json:"value"`
}

type commitItemRequest struct {
	Field entity.ItemField `json:"field" binding:"required"`
}

type categoryRequest struct {
	Label string `json:"label" binding:"required"`
}

type receiptRequest struct {
	Data     string `json:"data" binding:"required"`
	MimeType string `json:"mime_type"`
}

type claimHandlers struct {
	claim     ClaimService
	maxUpload int64
	logger    Logger
}

func newClaimHandlers(claim ClaimService, maxUpload int64, logger Logger) *claimHandlers {
	if maxUpload <= 0 {
		maxUpload = DefaultServerConfig().MaxUploadBytes
	}
	return &claimHandlers{claim: claim, maxUpload: maxUpload, logger: logger}
}

func (h *claimHandlers) bindFilter(c *gin.Context) (service.ItemFilter, bool) {
	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "invalid filter: "+err.Error())
		return service.ItemFilter{}, false
	}
	return q.toFilter(), true
}

// ListItems handles GET /api/v1/claim/items
func (h *claimHandlers) ListItems(c *gin.Context) {
	f, valid := h.bindFilter(c)
	if !valid {
		return
	}
	view := h.claim.Filter(f)
	ok(c, http.StatusOK, ItemsResponse{Items: view, Total: totalOf(view)})
}

func totalOf(items []entity.ExpenseLineItem) string {
	return service.Total(items).StringFixed(2)
}

// AddItem handles POST /api/v1/claim/items
func (h *claimHandlers) AddItem(c *gin.Context) {
	ok(c, http.StatusCreated, h.claim.AddManual(c.Request.Context()))
}

// UpdateItem handles PATCH /api/v1/claim/items/:id
func (h *claimHandlers) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "field is required")
		return
	}
	item, err := h.claim.Update(c.Request.Context(), c.Param("id"), req.Field, req.Value)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, item)
}

// CommitItem handles POST /api/v1/claim/items/:id/commit
func (h *claimHandlers) CommitItem(c *gin.Context) {
	var req commitItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "field is required")
		return
	}
	item, err := h.claim.Commit(c.Param("id"), req.Field)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, item)
}

// RemoveItem handles DELETE /api/v1/claim/items/:id
func (h *claimHandlers) RemoveItem(c *gin.Context) {
	if err := h.claim.Remove(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// IngestReceipt handles POST /api/v1/claim/receipts. The receipt arrives as a
// multipart "file" part or as JSON with base64 (optionally data-URL) data.
func (h *claimHandlers) IngestReceipt(c *gin.Context) {
	data, mimeType, err := h.readReceipt(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.claim.Ingest(c.Request.Context(), data, mimeType)
	if err != nil {
		fail(c, statusFor(err), service.MsgReceiptFailed)
		return
	}
	if item == nil {
		ok(c, http.StatusOK, gin.H{"item": nil})
		return
	}
	ok(c, http.StatusCreated, gin.H{"item": item})
}

func (h *claimHandlers) readReceipt(c *gin.Context) ([]byte, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, "", errors.New("file is required")
		}
		if header.Size > h.maxUpload {
			return nil, "", fmt.Errorf("file exceeds %d bytes", h.maxUpload)
		}
		f, err := header.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, h.maxUpload))
		if err != nil {
			return nil, "", fmt.Errorf("failed to read upload: %w", err)
		}
		return data, header.Header.Get("Content-Type"), nil
	}

	var req receiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, "", errors.New("data is required")
	}
	data, mimeType, err := decodeDataURL(req.Data)
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > h.maxUpload {
		return nil, "", fmt.Errorf("file exceeds %d bytes", h.maxUpload)
	}
	if req.MimeType != "" {
		mimeType = req.MimeType
	}
	return data, mimeType, nil
}

// decodeDataURL accepts plain base64 or "data:<mime>;base64,<payload>"
func decodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	mimeType := ""
	if strings.HasPrefix(s, "data:") {
		meta, payload, found := strings.Cut(s, ",")
		if !found {
			return nil, "", errors.New("malformed data URL")
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
		s = payload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", errors.New("data is not valid base64")
	}
	return data, mimeType, nil
}

// ListCategories handles GET /api/v1/claim/categories
func (h *claimHandlers) ListCategories(c *gin.Context) {
	ok(c, http.StatusOK, h.claim.Registry().Labels())
}

// RegisterCategory handles POST /api/v1/claim/categories
func (h *claimHandlers) RegisterCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "label is required")
		return
	}
	added, err := h.claim.RegisterCategory(c.Request.Context(), req.Label)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	ok(c, status, gin.H{"added": added, "categories": h.claim.Registry().Labels()})
}

// GetSummary handles GET /api/v1/claim/summary
func (h *claimHandlers) GetSummary(c *gin.Context) {
	summary, found := h.claim.Summary()
	if !found {
		fail(c, http.StatusNotFound, "no summary yet")
		return
	}
	ok(c, http.StatusOK, gin.H{"summary": summary})
}

// Summarize handles POST /api/v1/claim/summary. A failed summary is not an
// error; the response reports summary as null.
func (h *claimHandlers) Summarize(c *gin.Context) {
	summary, found := h.claim.Summarize(c.Request.Context())
	if !found {
		ok(c, http.StatusOK, gin.H{"summary": nil})
		return
	}
	ok(c, http.StatusOK, gin.H{"summary": summary})
}

// Export handles GET /api/v1/claim/export
func (h *claimHandlers) Export(c *gin.Context) {
	f, valid := h.bindFilter(c)
	if !valid {
		return
	}
	data, err := h.claim.Export(c.Request.Context(), f)
	if err != nil {
		failErr(c, h.logger, err)
		return
	}
	filename := fmt.Sprintf("expense-claim-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, h.claim.ExportContentType(), data)
}

// ListNotices handles GET /api/v1/claim/notices
func (h *claimHandlers) ListNotices(c *gin.Context) {
	ok(c, http.StatusOK, h.claim.Notices())
}

// DismissNotice handles DELETE /api/v1/claim/notices/:id
func (h *claimHandlers) DismissNotice(c *gin.Context) {
	if !h.claim.DismissNotice(c.Param("id")) {
		fail(c, http.StatusNotFound, "notice not found")
		return
	}
	c.Status(http.StatusNoContent)
}

