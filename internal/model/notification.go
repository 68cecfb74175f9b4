package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationMatchFound NotificationKind = "MATCH_FOUND"
)

// Notification is a fire-and-forget event for the external notification sink.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipientId"`
	Kind        NotificationKind `json:"kind"`
	SubjectID   uuid.UUID        `json:"subjectId"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"createdAt"`
}
