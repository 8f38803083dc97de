package infra

import (
	"flowmrp/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs AutoMigrate
// for the tables this service owns. The BOM edge table gets its composite
// unique index on (parent_code, child_code) from the model tags; duplicate
// pairs are nonetheless rejected in the service layer before the insert, so
// the index is a backstop, not the primary guard.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Item{},
		&model.BomEdge{},
		&model.AuditEntry{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
