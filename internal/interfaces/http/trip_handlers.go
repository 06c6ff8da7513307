package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-expense-portal/internal/application/service"
	domainsave "github.com/garyjia/travel-expense-portal/internal/domain/autosave"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/internal/domain/validation"
)

// TripService is the travel request session driven by the trip endpoints
type TripService interface {
	Record() entity.TripRecord
	Errors() validation.Result
	Status() domainsave.Status
	Section() entity.Section
	SetSection(section entity.Section) error
	LastSubmission() (entity.TripSubmission, bool)
	Notices() []service.Notice
	DismissNotice(id string) bool
	Edit(field entity.Field, value any) error
	AddAttachment(filename string) error
	RequestExtraction(ctx context.Context, text string) (bool, error)
	SaveDraft()
	Submit(ctx context.Context) (service.SubmitResult, error)
	Reset(ctx context.Context) error
	Restore(ctx context.Context) bool
}

// TripState is everything the form renders
type TripState struct {
	Record      entity.TripRecord       `json:"record"`
	Attendees   string                  `json:"attendees_display"`
	Errors      map[entity.Field]string `json:"errors"`
	Status      domainsave.Status       `json:"status"`
	StatusLabel string                  `json:"status_label"`
	Section     entity.Section          `json:"section"`
	Notices     []service.Notice        `json:"notices"`
}

type editFieldRequest struct {
	Value interface{} `json:"value"`
}

type setSectionRequest struct {
	Section entity.Section `json:"section" binding:"required"`
}

type attachmentRequest struct {
	Filename string `json:"filename" binding:"required"`
}

type extractRequest struct {
	Text string `json:"text"`
}

type tripHandlers struct {
	trip   TripService
	logger Logger
}

func newTripHandlers(trip TripService, logger Logger) *tripHandlers {
	return &tripHandlers{trip: trip, logger: logger}
}

func (h *tripHandlers) state() TripState {
	rec := h.trip.Record()
	status := h.trip.Status()
	return TripState{
		Record:      rec,
		Attendees:   rec.AttendeesOrSelf(),
		Errors:      h.trip.Errors().Map(),
		Status:      status,
		StatusLabel: status.Label(),
		Section:     h.trip.Section(),
		Notices:     h.trip.Notices(),
	}
}

// GetState handles GET /api/v1/trip
func (h *tripHandlers) GetState(c *gin.Context) {
	ok(c, http.StatusOK, h.state())
}

// EditField handles PATCH /api/v1/trip/fields/:field
func (h *tripHandlers) EditField(c *gin.Context) {
	var req editFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.trip.Edit(entity.Field(c.Param("field")), req.Value); err != nil {
		failErr(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, h.state())
}

// SetSection handles PUT /api/v1/trip/section
func (h *tripHandlers) SetSection(c *gin.Context) {
	var req setSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "section is required")
		return
	}
	if err := h.trip.SetSection(req.Section); err != nil {
		failErr(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, h.state())
}

// AddAttachment handles POST /api/v1/trip/attachments
func (h *tripHandlers) AddAttachment(c *gin.Context) {
	var req attachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "filename is required")
		return
	}
	if err := h.trip.AddAttachment(req.Filename); err != nil {
		failErr(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, h.state())
}

// Extract handles POST /api/v1/trip/extract
func (h *tripHandlers) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	applied, err := h.trip.RequestExtraction(c.Request.Context(), req.Text)
	if err != nil {
		fail(c, statusFor(err), service.MsgExtractionFailed)
		return
	}
	ok(c, http.StatusOK, gin.H{"applied": applied, "state": h.state()})
}

// SaveDraft handles POST /api/v1/trip/draft
func (h *tripHandlers) SaveDraft(c *gin.Context) {
	h.trip.SaveDraft()
	ok(c, http.StatusAccepted, h.state())
}

// Restore handles POST /api/v1/trip/restore
func (h *tripHandlers) Restore(c *gin.Context) {
	restored := h.trip.Restore(c.Request.Context())
	ok(c, http.StatusOK, gin.H{"restored": restored, "state": h.state()})
}

// Submit handles POST /api/v1/trip/submit
func (h *tripHandlers) Submit(c *gin.Context) {
	result, err := h.trip.Submit(c.Request.Context())
	if err != nil {
		failErr(c, h.logger, err)
		return
	}

	if result.Submission == nil {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Data: gin.H{
				"errors":  result.Validation.Map(),
				"section": result.Section,
			},
			Error: "validation failed",
		})
		return
	}
	ok(c, http.StatusOK, result.Submission)
}

// Reset handles POST /api/v1/trip/reset
func (h *tripHandlers) Reset(c *gin.Context) {
	if err := h.trip.Reset(c.Request.Context()); err != nil {
		failErr(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, h.state())
}

// LastSubmission handles GET /api/v1/trip/submission
func (h *tripHandlers) LastSubmission(c *gin.Context) {
	sub, found := h.trip.LastSubmission()
	if !found {
		fail(c, http.StatusNotFound, "no submission yet")
		return
	}
	ok(c, http.StatusOK, sub)
}

// DismissNotice handles DELETE /api/v1/trip/notices/:id
func (h *tripHandlers) DismissNotice(c *gin.Context) {
	if !h.trip.DismissNotice(c.Param("id")) {
		fail(c, http.StatusNotFound, "notice not found")
		return
	}
	c.Status(http.StatusNoContent)
}
