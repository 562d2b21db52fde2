// Package queue carries the admin audit trail over RabbitMQ: publishers
// used by admin operations and the consumer that writes the audit log.
package queue

import "encoding/json"

// Event kinds.  The kind selects the payload type inside an envelope.
const (
	KindCatalogChanged = "catalog.changed"
	KindRoleChanged    = "role.changed"
)

// Catalog actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogChangedEvent is published after a catalog item is written.
// Actor is the principal id, or the local admin's subject.
type CatalogChangedEvent struct {
	Action     string `json:"action"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name,omitempty"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurred_at"`
}

// RoleChangedEvent is published after a principal's role is set.
type RoleChangedEvent struct {
	TargetID   string `json:"target_id"`
	NewRole    string `json:"new_role"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurred_at"`
}

// envelope is the message body on the audit queue.
type envelope struct {
	Kind  string          `json:"kind"`
	Event json.RawMessage `json:"event"`
}
