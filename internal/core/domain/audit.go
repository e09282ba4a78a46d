package domain

import "time"

// AuditEvent is one row of a company's immutable audit trail. Events are
// appended with a monotonic sequence id and never mutated, removed, or
// reordered.
type AuditEvent struct {
	EventID     string    `json:"eventID"` // e.g. "audit-42", assigned by the store
	CompanyID   string    `json:"companyID"`
	EntityID    string    `json:"entityID"` // entry id, journal id, ...
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurredAt"`
	Description string    `json:"description"`
}

// AuditTrailFilter narrows an audit trail listing. CompanyID scoping is
// mandatory and enforced by the store; EntityID, Cursor, and Limit are
// optional refinements.
type AuditTrailFilter struct {
	EntityID *string
	Cursor   *string // drop events up to and including this event id
	Limit    *int
}
