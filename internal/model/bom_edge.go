package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BomEdge is one parent→child composition link: "ParentCode is built from
// Quantity Unit of ChildCode". The full BOM of an item is the set of edges
// reachable by following parent→child links from its code.
//
// The composite unique index rejects a second edge for the same ordered
// (parent, child) pair at the storage layer; self-loops and duplicates are
// additionally validated in the service layer before any write.
type BomEdge struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ParentCode string          `gorm:"uniqueIndex:idx_bom_parent_child;index;not null"`
	ChildCode  string          `gorm:"uniqueIndex:idx_bom_parent_child;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Unit       string          `gorm:"not null;default:'EA'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
