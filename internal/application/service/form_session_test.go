package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/application/autosave"
	"github.com/garyjia/travel-expense-portal/internal/application/port"
	domainsave "github.com/garyjia/travel-expense-portal/internal/domain/autosave"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/internal/domain/validation"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/clock"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	session   *FormSession
	store     *memory.Store
	clock     *clock.Manual
	extractor *MockTripExtractor
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewManual(time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC))
	saver := autosave.NewController(store, entity.DraftKey, clk, autosave.DefaultConfig())
	extractor := new(MockTripExtractor)
	session := NewFormSession(store, saver, extractor, clk, WithReferenceGenerator(func() string { return "TR-4242" }))
	return &sessionFixture{session: session, store: store, clock: clk, extractor: extractor}
}

func (f *sessionFixture) persisted(t *testing.T) (entity.TripRecord, bool) {
	t.Helper()
	raw, ok, err := f.store.Load(context.Background(), entity.DraftKey)
	require.NoError(t, err)
	if !ok {
		return entity.TripRecord{}, false
	}
	var r entity.TripRecord
	require.NoError(t, json.Unmarshal(raw, &r))
	return r, true
}

func fillBerlin(t *testing.T, s *FormSession) {
	t.Helper()
	edits := []struct {
		field entity.Field
		value any
	}{
		{entity.FieldName, "Trip to Berlin"},
		{entity.FieldJustification, "Client summit"},
		{entity.FieldDestinationCity, "Berlin"},
		{entity.FieldDestinationCountry, "Germany"},
		{entity.FieldDepartureDate, "2026-05-01"},
		{entity.FieldReturnDate, "2026-05-04"},
		{entity.FieldBudget, 50000.0},
	}
	for _, e := range edits {
		require.NoError(t, s.Edit(e.field, e.value))
	}
}

func TestFormSession_NewHasDefaults(t *testing.T) {
	f := newSessionFixture(t)

	r := f.session.Record()
	assert.Equal(t, "INR", r.Currency)
	assert.Equal(t, "Business", r.Purpose)
	assert.Equal(t, "Hotel", r.AccommodationType)
	assert.Equal(t, "Self", r.AttendeesOrSelf())
	assert.Equal(t, entity.SectionBasic, f.session.Section())
	assert.Equal(t, domainsave.StatusIdle, f.session.Status())
}

func TestFormSession_EditRejectsBadInput(t *testing.T) {
	f := newSessionFixture(t)

	assert.ErrorIs(t, f.session.Edit(entity.Field("nickname"), "x"), ErrUnknownField)
	assert.ErrorIs(t, f.session.Edit(entity.FieldBudget, "lots"), ErrInvalidValue)
	assert.ErrorIs(t, f.session.Edit(entity.FieldIsUrgent, 3.0), ErrInvalidValue)
	assert.ErrorIs(t, f.session.Edit(entity.FieldName, 12.0), ErrInvalidValue)

	assert.Equal(t, domainsave.StatusIdle, f.session.Status())
}

func TestFormSession_EditCoercesValues(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.Edit(entity.FieldBudget, "1250.50"))
	require.NoError(t, f.session.Edit(entity.FieldIsUrgent, "true"))
	require.NoError(t, f.session.Edit(entity.FieldAttachments, []any{"a.pdf", "b.pdf"}))

	r := f.session.Record()
	assert.Equal(t, 1250.5, r.Budget)
	assert.True(t, r.IsUrgent)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, r.Attachments)
}

func TestFormSession_EditAutosaves(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.Edit(entity.FieldName, "Off"))
	require.NoError(t, f.session.Edit(entity.FieldName, "Offsite"))
	assert.Equal(t, domainsave.StatusUnsaved, f.session.Status())

	f.clock.Advance(2 * time.Second)
	saved, ok := f.persisted(t)
	require.True(t, ok)
	assert.Equal(t, "Offsite", saved.Name)

	f.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, domainsave.StatusSaved, f.session.Status())
	f.clock.Advance(2 * time.Second)
	assert.Equal(t, domainsave.StatusIdle, f.session.Status())
}

func TestFormSession_EditClearsOnlyThatFieldsError(t *testing.T) {
	f := newSessionFixture(t)

	res, err := f.session.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Validation.Errors, 6)

	require.NoError(t, f.session.Edit(entity.FieldName, "Offsite"))

	errs := f.session.Errors()
	_, hasName := errs.Message(entity.FieldName)
	_, hasCity := errs.Message(entity.FieldDestinationCity)
	assert.False(t, hasName)
	assert.True(t, hasCity)
	assert.Len(t, errs.Errors, 5)
}

func TestFormSession_ApplyExtractionRoutesToTravel(t *testing.T) {
	f := newSessionFixture(t)

	f.session.ApplyExtraction(entity.TripPatch{DestinationCity: "Berlin", Budget: ptr(900.0)})

	r := f.session.Record()
	assert.Equal(t, "Trip to Berlin", r.Name)
	assert.Equal(t, 900.0, r.Budget)
	assert.Equal(t, entity.SectionTravel, f.session.Section())
	assert.Equal(t, domainsave.StatusUnsaved, f.session.Status())
}

func TestFormSession_ApplyExtractionKeepsOtherFocus(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.SetSection(entity.SectionNotes))

	f.session.ApplyExtraction(entity.TripPatch{DestinationCity: "Berlin"})
	assert.Equal(t, entity.SectionNotes, f.session.Section())

	require.NoError(t, f.session.SetSection(entity.SectionBasic))
	f.session.ApplyExtraction(entity.TripPatch{Justification: "Summit"})
	assert.Equal(t, entity.SectionBasic, f.session.Section())
}

func TestFormSession_ApplyExtractionIgnoresUnusableBudget(t *testing.T) {
	f := newSessionFixture(t)
	before := f.session.Record()

	f.session.ApplyExtraction(entity.TripPatch{Budget: ptr(-5.0)})

	assert.Equal(t, before, f.session.Record())
	assert.Equal(t, entity.SectionBasic, f.session.Section())
	assert.Equal(t, domainsave.StatusIdle, f.session.Status())
	assert.Zero(t, f.clock.Pending())
}

func TestFormSession_SetSectionRejectsUnknown(t *testing.T) {
	f := newSessionFixture(t)

	assert.ErrorIs(t, f.session.SetSection(entity.Section("BILLING")), ErrInvalidValue)
}

func TestFormSession_RequestExtraction_EmptyInputIsNoop(t *testing.T) {
	f := newSessionFixture(t)

	applied, err := f.session.RequestExtraction(context.Background(), "   ")

	require.NoError(t, err)
	assert.False(t, applied)
	f.extractor.AssertNotCalled(t, "ExtractTrip", mock.Anything, mock.Anything, mock.Anything)
}

func TestFormSession_RequestExtraction_Applies(t *testing.T) {
	f := newSessionFixture(t)
	text := "Client summit in Berlin May 1-4, budget 50000"
	f.extractor.On("ExtractTrip", mock.Anything, text, f.clock.Now()).Return(&entity.TripPatch{
		DestinationCity:    "Berlin",
		DestinationCountry: "Germany",
		DepartureDate:      "2026-05-01",
		ReturnDate:         "2026-05-04",
		Budget:             ptr(50000.0),
	}, nil)

	_, _ = f.session.Submit(context.Background())
	require.NotEmpty(t, f.session.Errors().Errors)

	applied, err := f.session.RequestExtraction(context.Background(), "  "+text+" ")

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Empty(t, f.session.Errors().Errors)
	assert.Equal(t, "Trip to Berlin", f.session.Record().Name)
	f.extractor.AssertExpectations(t)
}

func TestFormSession_RequestExtraction_FailureAddsNotice(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Edit(entity.FieldName, "Mine"))
	before := f.session.Record()
	f.extractor.On("ExtractTrip", mock.Anything, "Paris", mock.Anything).
		Return(nil, errors.Join(port.ErrExtractionFailed, errors.New("401")))

	applied, err := f.session.RequestExtraction(context.Background(), "Paris")

	assert.False(t, applied)
	assert.ErrorIs(t, err, port.ErrExtractionFailed)
	assert.Equal(t, before, f.session.Record())

	notices := f.session.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, MsgExtractionFailed, notices[0].Message)

	assert.True(t, f.session.DismissNotice(notices[0].ID))
	assert.False(t, f.session.DismissNotice(notices[0].ID))
	assert.Empty(t, f.session.Notices())
}

func TestFormSession_RequestExtraction_EmptyResultIsSilent(t *testing.T) {
	f := newSessionFixture(t)
	f.extractor.On("ExtractTrip", mock.Anything, "hmm", mock.Anything).Return(nil, nil)

	applied, err := f.session.RequestExtraction(context.Background(), "hmm")

	require.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, f.session.Notices())
	assert.Equal(t, domainsave.StatusIdle, f.session.Status())
}

func TestFormSession_LateExtractionKeepsTypedName(t *testing.T) {
	f := newSessionFixture(t)
	f.extractor.On("ExtractTrip", mock.Anything, "Berlin trip", mock.Anything).
		Run(func(args mock.Arguments) {
			// the user keeps typing while the call is in flight
			require.NoError(t, f.session.Edit(entity.FieldName, "Summit week"))
		}).
		Return(&entity.TripPatch{DestinationCity: "Berlin"}, nil)

	applied, err := f.session.RequestExtraction(context.Background(), "Berlin trip")

	require.NoError(t, err)
	assert.True(t, applied)
	r := f.session.Record()
	assert.Equal(t, "Summit week", r.Name)
	assert.Equal(t, "Berlin", r.DestinationCity)
}

func TestFormSession_SubmitBerlin(t *testing.T) {
	f := newSessionFixture(t)
	fillBerlin(t, f.session)
	input := f.session.Record()

	f.clock.Advance(2 * time.Second)
	_, ok := f.persisted(t)
	require.True(t, ok)

	res, err := f.session.Submit(context.Background())

	require.NoError(t, err)
	require.NotNil(t, res.Submission)
	assert.True(t, res.Validation.Valid())
	assert.Equal(t, input, res.Submission.Record)
	assert.Equal(t, "TR-4242", res.Submission.ReferenceID)
	assert.Equal(t, f.clock.Now(), res.Submission.SubmittedAt)

	_, ok = f.persisted(t)
	assert.False(t, ok)

	// the pending settle must not resurrect the draft
	f.clock.Advance(time.Minute)
	_, ok = f.persisted(t)
	assert.False(t, ok)
	assert.Equal(t, domainsave.StatusIdle, f.session.Status())

	last, ok := f.session.LastSubmission()
	require.True(t, ok)
	assert.Equal(t, "TR-4242", last.ReferenceID)
	assert.Equal(t, entity.NewTripRecord(), f.session.Record())
}

func TestFormSession_SubmitSnapshotIsFrozen(t *testing.T) {
	f := newSessionFixture(t)
	fillBerlin(t, f.session)
	require.NoError(t, f.session.AddAttachment("agenda.pdf"))

	res, err := f.session.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.session.AddAttachment("other.pdf"))
	assert.Equal(t, []string{"agenda.pdf"}, res.Submission.Record.Attachments)
}

func TestFormSession_SubmitInvalidRoutesToSection(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Edit(entity.FieldName, "Trip"))
	require.NoError(t, f.session.Edit(entity.FieldJustification, "Because"))

	res, err := f.session.Submit(context.Background())

	require.NoError(t, err)
	assert.Nil(t, res.Submission)
	assert.Equal(t, entity.SectionTravel, res.Section)
	assert.Equal(t, entity.SectionTravel, f.session.Section())
	msg, ok := f.session.Errors().Message(entity.FieldDestinationCity)
	assert.True(t, ok)
	assert.Equal(t, validation.MsgCityRequired, msg)
	assert.Equal(t, "Trip", f.session.Record().Name)
}

func TestFormSession_Reset(t *testing.T) {
	f := newSessionFixture(t)
	fillBerlin(t, f.session)
	f.session.SaveDraft()
	_, ok := f.persisted(t)
	require.True(t, ok)

	require.NoError(t, f.session.Reset(context.Background()))

	_, ok = f.persisted(t)
	assert.False(t, ok)
	assert.Equal(t, entity.NewTripRecord(), f.session.Record())
	assert.Equal(t, domainsave.StatusIdle, f.session.Status())
}

func TestFormSession_Restore(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	saved := entity.NewTripRecord()
	saved.Name = "Restored"
	saved.DestinationCity = "Oslo"
	raw, _ := json.Marshal(saved)
	require.NoError(t, f.store.Save(ctx, entity.DraftKey, raw))

	assert.True(t, f.session.Restore(ctx))

	assert.Equal(t, saved, f.session.Record())
	assert.Equal(t, domainsave.StatusIdle, f.session.Status())
}

func TestFormSession_RestoreKeepsDefaultsForMissingKeys(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, entity.DraftKey, []byte(`{"name":"Partial"}`)))

	require.True(t, f.session.Restore(ctx))

	r := f.session.Record()
	assert.Equal(t, "Partial", r.Name)
	assert.Equal(t, "INR", r.Currency)
	assert.NotNil(t, r.Attachments)
}

func TestFormSession_RestoreDiscardsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"truncated", `{"name":"Tri`},
		{"array", `["x"]`},
		{"null", `null`},
		{"wrong type", `{"budget":"a lot"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			ctx := context.Background()
			require.NoError(t, f.store.Save(ctx, entity.DraftKey, []byte(tt.raw)))

			assert.False(t, f.session.Restore(ctx))

			_, ok := f.persisted(t)
			assert.False(t, ok)
			assert.Equal(t, entity.NewTripRecord(), f.session.Record())
		})
	}
}

func TestFormSession_RestoreWithoutDraft(t *testing.T) {
	f := newSessionFixture(t)

	assert.False(t, f.session.Restore(context.Background()))
}

func TestFormSession_AddAttachment(t *testing.T) {
	f := newSessionFixture(t)

	assert.ErrorIs(t, f.session.AddAttachment("  "), ErrInvalidValue)
	require.NoError(t, f.session.AddAttachment("visa.pdf"))
	require.NoError(t, f.session.AddAttachment("agenda.pdf"))

	assert.Equal(t, []string{"visa.pdf", "agenda.pdf"}, f.session.Record().Attachments)
	assert.Equal(t, domainsave.StatusUnsaved, f.session.Status())
}

func TestFormSession_AddAttachmentStripsControlCharacters(t *testing.T) {
	f := newSessionFixture(t)

	assert.ErrorIs(t, f.session.AddAttachment("\x00\x1b\n"), ErrInvalidValue)
	require.NoError(t, f.session.AddAttachment("visa\x00.pdf\n"))

	assert.Equal(t, []string{"visa.pdf"}, f.session.Record().Attachments)
}

func TestReferenceID(t *testing.T) {
	for i := 0; i < 200; i++ {
		assert.Regexp(t, `^TR-(\d{4}|10\d{3})$`, referenceID())
	}
}
