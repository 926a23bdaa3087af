package models

import "time"

type AuditAction string

const (
	AuditChurchSubmitted AuditAction = "church_submitted"
	AuditChurchApproved  AuditAction = "church_approved"
	AuditChurchRejected  AuditAction = "church_rejected"
	AuditRoleGranted     AuditAction = "role_granted"
)

type AuditEvent struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	ActorID   int64       `json:"actor_id"`
	ChurchID  *int64      `json:"church_id,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type ContactMessage struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Subject   string    `json:"subject" db:"subject"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
