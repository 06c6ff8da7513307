package service

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-expense-portal/internal/application/dispatcher"
	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/internal/domain/event"
)

// NotifySubmissionHandler forwards trip.submitted events to notifier
func NotifySubmissionHandler(notifier port.SubmissionNotifier) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		sub, ok := evt.Payload["submission"].(entity.TripSubmission)
		if !ok {
			return fmt.Errorf("event %s carries no submission", evt.ID)
		}
		return notifier.NotifySubmission(ctx, sub)
	}
}
