package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records the outcome of a structural BOM mutation (delete, batch
// delete, subtree copy). Entries are written asynchronously by the audit
// worker, never by request handlers.
type AuditEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Action     string    `gorm:"index;not null"`
	ParentCode string
	ChildCode  string
	Succeeded  bool `gorm:"not null"`
	Detail     string
	CreatedAt  time.Time
}
