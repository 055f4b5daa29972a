package models

import "time"

type OperatorRole string

const (
	OperatorRoleAdmin  OperatorRole = "admin"
	OperatorRoleEditor OperatorRole = "editor"
)

type OperatorStatus string

const (
	OperatorStatusActive    OperatorStatus = "active"
	OperatorStatusSuspended OperatorStatus = "suspended"
)

// Operator is a console account. Only admins may change content.
type Operator struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	Role         OperatorRole
	Status       OperatorStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID               string
	OperatorID       string
	DeviceID         string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
