package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/garyjia/travel-expense-portal/internal/application/dispatcher"
	"github.com/garyjia/travel-expense-portal/internal/application/port"
	domainsave "github.com/garyjia/travel-expense-portal/internal/domain/autosave"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/internal/domain/event"
	"github.com/garyjia/travel-expense-portal/internal/domain/reconcile"
	"github.com/garyjia/travel-expense-portal/internal/domain/validation"
	"github.com/garyjia/travel-expense-portal/pkg/utils"
)

// MsgExtractionFailed is the notice shown when the trip extractor errors
const MsgExtractionFailed = "Failed to orchestrate request. Please check API key or try again."

// DraftSaver persists the draft on behalf of a session.
// It is satisfied by *autosave.Controller.
type DraftSaver interface {
	Changed(payload []byte)
	SaveNow(payload []byte)
	Discard(ctx context.Context) error
	Status() domainsave.Status
}

// SubmitResult is the outcome of FormSession.Submit. Exactly one of
// Submission and a non-empty Validation is set.
type SubmitResult struct {
	Submission *entity.TripSubmission `json:"submission,omitempty"`
	Validation validation.Result      `json:"validation"`
	Section    entity.Section         `json:"section,omitempty"`
}

// SessionOption configures a FormSession
type SessionOption func(*FormSession)

// WithSessionLogger sets the session logger
func WithSessionLogger(logger port.Logger) SessionOption {
	return func(s *FormSession) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionDispatcher publishes session events through d
func WithSessionDispatcher(d dispatcher.Dispatcher) SessionOption {
	return func(s *FormSession) {
		s.dispatcher = d
	}
}

// WithReferenceGenerator replaces the TR-NNNN reference generator
func WithReferenceGenerator(fn func() string) SessionOption {
	return func(s *FormSession) {
		s.newReference = fn
	}
}

// FormSession owns one travel request draft: its record, validation errors,
// focused section and notices.
type FormSession struct {
	store        port.KVStore
	saver        DraftSaver
	extractor    port.TripExtractor
	clock        port.Clock
	logger       port.Logger
	dispatcher   dispatcher.Dispatcher
	newReference func() string
	notices      noticeBoard

	// mu is held while the saver is notified so payloads reach it in edit order
	mu         sync.Mutex
	record     entity.TripRecord
	errors     validation.Result
	section    entity.Section
	submission *entity.TripSubmission
}

// NewFormSession creates a session with an empty draft. Call Restore to pick up
// a previously saved draft.
func NewFormSession(store port.KVStore, saver DraftSaver, extractor port.TripExtractor, clock port.Clock, opts ...SessionOption) *FormSession {
	s := &FormSession{
		store:        store,
		saver:        saver,
		extractor:    extractor,
		clock:        clock,
		logger:       port.NopLogger{},
		newReference: referenceID,
		record:       entity.NewTripRecord(),
		section:      entity.SectionBasic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func referenceID() string {
	return fmt.Sprintf("TR-%d", 1000+rand.IntN(10000))
}

// Record returns a copy of the current draft
func (s *FormSession) Record() entity.TripRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// Errors returns the validation errors currently displayed
func (s *FormSession) Errors() validation.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors
}

// Status returns the autosave status of the draft
func (s *FormSession) Status() domainsave.Status {
	return s.saver.Status()
}

// Section returns the focused form section
func (s *FormSession) Section() entity.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.section
}

// SetSection moves focus to section
func (s *FormSession) SetSection(section entity.Section) error {
	if !section.IsValid() {
		return fmt.Errorf("%w: section %q", ErrInvalidValue, section)
	}
	s.mu.Lock()
	s.section = section
	s.mu.Unlock()
	return nil
}

// LastSubmission returns the snapshot of the most recent successful submit
func (s *FormSession) LastSubmission() (entity.TripSubmission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submission == nil {
		return entity.TripSubmission{}, false
	}
	return *s.submission, true
}

// Notices returns the undismissed notices, oldest first
func (s *FormSession) Notices() []Notice {
	return s.notices.list()
}

// DismissNotice removes a notice, reporting whether it existed
func (s *FormSession) DismissNotice(id string) bool {
	return s.notices.dismiss(id)
}

// Edit sets one field from user input and clears that field's error.
func (s *FormSession) Edit(field entity.Field, value any) error {
	if !field.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.record.Clone()
	if err := setTripField(&next, field, value); err != nil {
		return fmt.Errorf("edit %s: %w", field, err)
	}
	s.record = next
	s.errors = s.errors.Without(field)
	s.changedLocked()
	return nil
}

// AddAttachment appends a filename to the draft's attachments
func (s *FormSession) AddAttachment(filename string) error {
	name := utils.SanitizeString(filename)
	if name == "" {
		return fmt.Errorf("%w: empty filename", ErrInvalidValue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.record.Attachments = append(s.record.Attachments, name)
	s.errors = s.errors.Without(entity.FieldAttachments)
	s.changedLocked()
	return nil
}

// ApplyExtraction merges an extractor suggestion onto the current draft.
// Presence is re-checked against the draft as it is now, not as it was when
// the extraction was requested. A patch with no usable value is ignored.
func (s *FormSession) ApplyExtraction(patch entity.TripPatch) {
	if patch.IsEmpty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = reconcile.Trip(s.record, patch)
	if s.section == entity.SectionBasic && patch.HasTravelFields() {
		s.section = entity.SectionTravel
	}
	s.changedLocked()
}

// RequestExtraction sends a free-text description to the extractor and merges
// the result. It reports whether a suggestion was applied. A failed call adds
// a notice and leaves the draft alone; concurrent requests are not fenced and
// the last one to finish wins.
func (s *FormSession) RequestExtraction(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	s.mu.Lock()
	s.errors = validation.Result{}
	s.mu.Unlock()

	patch, err := s.extractor.ExtractTrip(ctx, text, s.clock.Now())
	if err != nil {
		s.logger.Error("Trip extraction failed", "error", err)
		s.notices.add(MsgExtractionFailed, s.clock.Now())
		s.publish(ctx, event.NewEvent(event.TypeExtractionFailed, "trip", map[string]interface{}{
			"error": err.Error(),
		}, s.clock.Now()))
		return false, err
	}
	if patch == nil || patch.IsEmpty() {
		s.logger.Info("Trip extraction returned nothing")
		return false, nil
	}

	s.ApplyExtraction(*patch)
	s.publish(ctx, event.NewEvent(event.TypeExtractionApplied, "trip", map[string]interface{}{
		"destination_city": patch.DestinationCity,
	}, s.clock.Now()))
	return true, nil
}

// SaveDraft persists the draft immediately
func (s *FormSession) SaveDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payload, ok := s.payloadLocked(); ok {
		s.saver.SaveNow(payload)
	}
}

// Submit validates the draft. On success the draft is frozen into a
// submission, the persisted draft is cleared and a fresh draft begins.
// On failure focus moves to the first section with an error.
func (s *FormSession) Submit(ctx context.Context) (SubmitResult, error) {
	s.mu.Lock()

	result := validation.Validate(s.record)
	if !result.Valid() {
		s.errors = result
		section, _ := result.Section()
		s.section = section
		s.mu.Unlock()
		return SubmitResult{Validation: result, Section: section}, nil
	}

	sub := entity.TripSubmission{
		ReferenceID: s.newReference(),
		Record:      s.record.Clone(),
		SubmittedAt: s.clock.Now(),
	}
	s.submission = &sub
	s.record = entity.NewTripRecord()
	s.errors = validation.Result{}
	s.section = entity.SectionBasic
	discardErr := s.saver.Discard(ctx)
	s.mu.Unlock()

	if discardErr != nil {
		s.logger.Error("Failed to clear submitted draft", "reference_id", sub.ReferenceID, "error", discardErr)
	}
	s.logger.Info("Travel request submitted",
		"reference_id", sub.ReferenceID,
		"destination_city", sub.Record.DestinationCity,
	)
	s.publish(ctx, event.NewEvent(event.TypeTripSubmitted, sub.ReferenceID, map[string]interface{}{
		"submission": sub,
	}, sub.SubmittedAt))

	return SubmitResult{Submission: &sub, Validation: result}, nil
}

// Reset discards the draft and returns the session to an empty record
func (s *FormSession) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.record = entity.NewTripRecord()
	s.errors = validation.Result{}
	s.section = entity.SectionBasic
	s.submission = nil
	err := s.saver.Discard(ctx)
	s.mu.Unlock()

	s.notices.clear()
	s.publish(ctx, event.NewEvent(event.TypeTripReset, "trip", nil, s.clock.Now()))
	if err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

// Restore loads the last saved draft. A missing or malformed draft leaves the
// session empty; a malformed one is deleted. It reports whether a draft was
// restored and does not trigger an autosave.
func (s *FormSession) Restore(ctx context.Context) bool {
	raw, ok, err := s.store.Load(ctx, entity.DraftKey)
	if err != nil {
		s.logger.Error("Failed to load draft", "error", err)
		return false
	}
	if !ok {
		return false
	}

	record, err := decodeDraft(raw)
	if err != nil {
		s.logger.Error("Discarding malformed draft", "error", err)
		if delErr := s.store.Delete(ctx, entity.DraftKey); delErr != nil {
			s.logger.Error("Failed to delete malformed draft", "error", delErr)
		}
		return false
	}

	s.mu.Lock()
	s.record = record
	s.errors = validation.Result{}
	s.mu.Unlock()

	s.logger.Info("Draft restored", "name", record.Name)
	return true
}

func decodeDraft(raw []byte) (entity.TripRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return entity.TripRecord{}, fmt.Errorf("draft is not a JSON object")
	}
	record := entity.NewTripRecord()
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return entity.TripRecord{}, err
	}
	if record.Attachments == nil {
		record.Attachments = []string{}
	}
	return record, nil
}

func (s *FormSession) payloadLocked() ([]byte, bool) {
	payload, err := json.Marshal(s.record)
	if err != nil {
		s.logger.Error("Failed to encode draft", "error", err)
		return nil, false
	}
	return payload, true
}

func (s *FormSession) changedLocked() {
	if payload, ok := s.payloadLocked(); ok {
		s.saver.Changed(payload)
	}
}

func (s *FormSession) publish(ctx context.Context, evt *event.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
}

func setTripField(r *entity.TripRecord, field entity.Field, value any) error {
	switch field {
	case entity.FieldBudget:
		v, err := asNumber(value)
		if err != nil {
			return err
		}
		r.Budget = v
		return nil
	case entity.FieldIsUrgent:
		v, err := asBool(value)
		if err != nil {
			return err
		}
		r.IsUrgent = v
		return nil
	case entity.FieldAttachments:
		v, err := asStrings(value)
		if err != nil {
			return err
		}
		r.Attachments = v
		return nil
	}

	v, err := asString(value)
	if err != nil {
		return err
	}
	switch field {
	case entity.FieldName:
		r.Name = v
	case entity.FieldJustification:
		r.Justification = v
	case entity.FieldCurrency:
		r.Currency = v
	case entity.FieldDestinationCity:
		r.DestinationCity = v
	case entity.FieldDestinationCountry:
		r.DestinationCountry = v
	case entity.FieldDepartureDate:
		r.DepartureDate = v
	case entity.FieldReturnDate:
		r.ReturnDate = v
	case entity.FieldPurpose:
		r.Purpose = v
	case entity.FieldAccommodationType:
		r.AccommodationType = v
	case entity.FieldAccommodationPreference:
		r.AccommodationPreference = v
	case entity.FieldAttendees:
		r.Attendees = v
	case entity.FieldNotes:
		r.Notes = v
	case entity.FieldPreferredSupplier:
		r.PreferredSupplier = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}
