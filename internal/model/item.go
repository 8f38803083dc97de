package model

import (
	"time"

	"github.com/google/uuid"
)

// Item is a row of the item master. The BOM engine only ever reads it
// (code→name resolution and existence checks); item CRUD lives elsewhere.
type Item struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code      string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"index;not null"`
	Spec      *string
	Unit      string `gorm:"not null;default:'EA'"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
