package models

import (
	"time"

	"portfolio/internal/content"
)

type MessageStatus string

const (
	MessageStatusUnread   MessageStatus = "unread"
	MessageStatusRead     MessageStatus = "read"
	MessageStatusArchived MessageStatus = "archived"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusUnread, MessageStatusRead, MessageStatusArchived:
		return true
	}
	return false
}

// Message is a contact form submission. It carries no slug and no image.
type Message struct {
	content.Meta
	Name       *string       `json:"name"`
	Email      *string       `json:"email" validate:"omitempty,email"`
	Subject    *string       `json:"subject"`
	Message    *string       `json:"message"`
	Status     MessageStatus `json:"status" validate:"oneof=unread read archived"`
	ReceivedAt *time.Time    `json:"receivedAt"`
}

func (m *Message) Normalize() {
	m.Name = content.TrimToNil(m.Name)
	m.Email = content.TrimToNil(m.Email)
	m.Subject = content.TrimToNil(m.Subject)
	m.Message = content.TrimToNil(m.Message)
	if m.Status == "" {
		m.Status = MessageStatusUnread
	}
	if m.ReceivedAt == nil {
		now := time.Now().UTC()
		m.ReceivedAt = &now
	}
}

func (m *Message) Validate() error {
	return content.Check(m)
}
