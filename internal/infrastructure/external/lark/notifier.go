// Package lark sends travel request submissions to an approver as Lark
// interactive cards.
package lark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

const (
	receiveIDTypeOpenID = "open_id"
	msgTypeInteractive  = "interactive"
)

// MessageCreator is the Im.Message service of the Lark SDK client
type MessageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Notifier implements port.SubmissionNotifier
type Notifier struct {
	messages   MessageCreator
	approverID string
	logger     *zap.Logger
}

var _ port.SubmissionNotifier = (*Notifier)(nil)

// NewNotifier creates a notifier sending to approverOpenID
func NewNotifier(messages MessageCreator, approverOpenID string, logger *zap.Logger) *Notifier {
	return &Notifier{
		messages:   messages,
		approverID: approverOpenID,
		logger:     logger,
	}
}

// NotifySubmission sends the submission card to the approver
func (n *Notifier) NotifySubmission(ctx context.Context, sub entity.TripSubmission) error {
	body, err := newSubmissionMessage(n.approverID, sub)
	if err != nil {
		return err
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDTypeOpenID).
		Body(body).
		Build()

	resp, err := n.messages.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send submission card",
			zap.String("reference_id", sub.ReferenceID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("reference_id", sub.ReferenceID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	n.logger.Info("Submission card sent",
		zap.String("reference_id", sub.ReferenceID),
		zap.String("message_id", messageID))
	return nil
}

// newSubmissionMessage builds the interactive card message addressed to receiveID
func newSubmissionMessage(receiveID string, sub entity.TripSubmission) (*larkim.CreateMessageReqBody, error) {
	card, err := json.Marshal(buildSubmissionCard(sub))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal card content: %w", err)
	}
	return larkim.NewCreateMessageReqBodyBuilder().
		ReceiveId(receiveID).
		MsgType(msgTypeInteractive).
		Content(string(card)).
		Build(), nil
}
