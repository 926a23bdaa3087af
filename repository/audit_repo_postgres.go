package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"dailybread/models"
)

type PostgresAuditRepo struct {
	DB *sql.DB
}

func NewPostgresAuditRepo(db *sql.DB) *PostgresAuditRepo {
	return &PostgresAuditRepo{DB: db}
}

func (r *PostgresAuditRepo) Record(ctx context.Context, e *models.AuditEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO audit_events (action, actor_id, church_id, detail, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING id
	`, e.Action, e.ActorID, e.ChurchID, e.Detail, e.CreatedAt).Scan(&id)
	if err != nil {
		return err
	}
	e.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *PostgresAuditRepo) List(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, action, actor_id, church_id, COALESCE(detail, ''), created_at
		FROM audit_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		var id int64
		e := &models.AuditEvent{}
		if err := rows.Scan(&id, &e.Action, &e.ActorID, &e.ChurchID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ID = strconv.FormatInt(id, 10)
		events = append(events, e)
	}
	return events, rows.Err()
}

type PostgresContactRepo struct {
	DB *sql.DB
}

func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{DB: db}
}

func (r *PostgresContactRepo) SaveMessage(ctx context.Context, m *models.ContactMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.Name, m.Email, m.Subject, m.Message, m.CreatedAt).Scan(&m.ID)
}

func (r *PostgresContactRepo) ListMessages(ctx context.Context, limit int) ([]*models.ContactMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, email, subject, message, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.ContactMessage
	for rows.Next() {
		m := &models.ContactMessage{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
