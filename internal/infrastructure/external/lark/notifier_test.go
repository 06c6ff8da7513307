package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockMessageCreator struct {
	mock.Mock
}

func (m *MockMessageCreator) Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*larkim.CreateMessageResp)
	return resp, args.Error(1)
}

func berlinSubmission() entity.TripSubmission {
	rec := entity.NewTripRecord()
	rec.Name = "Trip to Berlin"
	rec.Justification = "Client summit"
	rec.DestinationCity = "Berlin"
	rec.DestinationCountry = "Germany"
	rec.DepartureDate = "2026-05-01"
	rec.ReturnDate = "2026-05-04"
	rec.Budget = 50000
	return entity.TripSubmission{
		ReferenceID: "TR-4242",
		Record:      rec,
		SubmittedAt: time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestNotifier_NotifySubmission(t *testing.T) {
	messages := new(MockMessageCreator)
	msgID := "om_123"
	messages.On("Create", mock.Anything, mock.MatchedBy(func(req *larkim.CreateMessageReq) bool {
		return req != nil
	})).Return(&larkim.CreateMessageResp{
		Data: &larkim.CreateMessageRespData{MessageId: &msgID},
	}, nil)

	n := NewNotifier(messages, "ou_approver", zap.NewNop())
	err := n.NotifySubmission(context.Background(), berlinSubmission())

	require.NoError(t, err)
	messages.AssertExpectations(t)
}

func TestNewSubmissionMessage(t *testing.T) {
	body, err := newSubmissionMessage("ou_approver", berlinSubmission())
	require.NoError(t, err)
	require.NotNil(t, body.ReceiveId)
	require.NotNil(t, body.MsgType)
	require.NotNil(t, body.Content)

	assert.Equal(t, "ou_approver", *body.ReceiveId)
	assert.Equal(t, "interactive", *body.MsgType)

	var card map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*body.Content), &card))
	header := card["header"].(map[string]interface{})
	assert.Equal(t, "blue", header["template"])
	assert.Contains(t, *body.Content, "TR-4242")
}

func TestNotifier_Errors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		messages := new(MockMessageCreator)
		messages.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

		err := NewNotifier(messages, "ou_approver", zap.NewNop()).NotifySubmission(context.Background(), berlinSubmission())
		assert.Error(t, err)
	})

	t.Run("api code", func(t *testing.T) {
		messages := new(MockMessageCreator)
		messages.On("Create", mock.Anything, mock.Anything).Return(&larkim.CreateMessageResp{
			CodeError: larkcore.CodeError{Code: 230002, Msg: "bot not in chat"},
		}, nil)

		err := NewNotifier(messages, "ou_approver", zap.NewNop()).NotifySubmission(context.Background(), berlinSubmission())
		assert.ErrorContains(t, err, "230002")
	})
}

func TestBuildSubmissionCard(t *testing.T) {
	sub := berlinSubmission()
	sub.Record.IsUrgent = true
	sub.Record.Notes = "Bring samples"
	sub.Record.Attachments = []string{"agenda.pdf"}

	card := buildSubmissionCard(sub)

	header := card["header"].(map[string]interface{})
	assert.Equal(t, "red", header["template"])

	raw, err := json.Marshal(card)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Berlin, Germany")
	assert.Contains(t, string(raw), "INR 50000.00")
	assert.Contains(t, string(raw), "Self")
	assert.Contains(t, string(raw), "agenda.pdf")
	assert.Contains(t, string(raw), "TR-4242")
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{AppID: "a", AppSecret: "b"}.Enabled())
	assert.True(t, Config{AppID: "a", AppSecret: "b", ApproverOpenID: "ou"}.Enabled())
}
