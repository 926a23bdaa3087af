package repository

import (
	"context"

	"dailybread/models"
)

// AuditRepository stores moderation and role events. Postgres and MongoDB
// implementations exist; MongoDB is used when MONGO_URL is configured.
type AuditRepository interface {
	Record(ctx context.Context, e *models.AuditEvent) error
	List(ctx context.Context, limit int) ([]*models.AuditEvent, error)
}

type ContactRepository interface {
	SaveMessage(ctx context.Context, m *models.ContactMessage) error
	ListMessages(ctx context.Context, limit int) ([]*models.ContactMessage, error)
}
