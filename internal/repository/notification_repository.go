package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// NotificationRepository appends events for the external notification sink.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification model.Notification) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO notifications (recipient_id, kind, subject_id, message)
		VALUES (?, ?, ?, ?)
	`,
		notification.RecipientID,
		notification.Kind,
		notification.SubjectID,
		notification.Message,
	).Error
}
