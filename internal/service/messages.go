package service

import (
	"context"

	"portfolio/internal/apperr"
	"portfolio/internal/models"
)

type MessageService = RecordService[models.Message, *models.Message]

// SetMessageStatus moves a message between unread, read and archived.
func SetMessageStatus(ctx context.Context, svc *MessageService, id string, status models.MessageStatus) (*models.Message, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Status must be one of: unread read archived")
	}
	return svc.Patch(ctx, id, func(m *models.Message) error {
		m.Status = status
		return nil
	})
}

// RecentMessages returns up to n messages, newest first.
func RecentMessages(ctx context.Context, svc *MessageService, n int) ([]*models.Message, error) {
	list, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > n {
		list = list[:n]
	}
	return list, nil
}
