package repository

import (
	"context"

	"flowmrp/internal/model"

	"gorm.io/gorm"
)

// ItemCatalog is the read-only view of the item master that the BOM engine
// needs: code→name resolution for tree building and name→code resolution for
// spreadsheet ingest. Item lifecycle management is owned by another service.
type ItemCatalog interface {
	// NameIndex loads the full code→name map in one query. Tree building and
	// subtree copy take this snapshot once per call.
	NameIndex(ctx context.Context) (map[string]string, error)
	// FindCodeByName resolves an item display name to its code; misses return
	// gorm.ErrRecordNotFound.
	FindCodeByName(ctx context.Context, name string) (string, error)
	Exists(ctx context.Context, code string) (bool, error)
}

type itemCatalog struct{ db *gorm.DB }

func NewItemCatalog(db *gorm.DB) ItemCatalog { return &itemCatalog{db: db} }

func (r *itemCatalog) NameIndex(ctx context.Context) (map[string]string, error) {
	var items []model.Item
	if err := r.db.WithContext(ctx).Select("code", "name").Where("active = true").Find(&items).Error; err != nil {
		return nil, err
	}
	index := make(map[string]string, len(items))
	for _, it := range items {
		index[it.Code] = it.Name
	}
	return index, nil
}

func (r *itemCatalog) FindCodeByName(ctx context.Context, name string) (string, error) {
	var item model.Item
	err := r.db.WithContext(ctx).Where("name = ? AND active = true", name).First(&item).Error
	if err != nil {
		return "", err
	}
	return item.Code, nil
}

func (r *itemCatalog) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("code = ? AND active = true", code).
		Count(&count).Error
	return count > 0, err
}
