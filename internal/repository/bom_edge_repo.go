package repository

import (
	"context"

	"flowmrp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BomEdgeRepository is the data access contract for BOM edges. Services depend
// on this interface, not on the concrete GORM implementation, enabling clean
// unit testing via in-memory stubs.
//
// It is plain CRUD with no cross-edge validation; structural invariants
// (self-loops, duplicates, bottom-up deletion order) are enforced by the
// services on top. Lookups by ID that miss return gorm.ErrRecordNotFound;
// every other storage failure is propagated unchanged.
type BomEdgeRepository interface {
	Create(ctx context.Context, e *model.BomEdge) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BomEdge, error)
	// FindAll and FindByParent return edges in creation order (created_at,
	// then id as tie-break) so tree output is deterministic.
	FindAll(ctx context.Context) ([]model.BomEdge, error)
	FindByParent(ctx context.Context, parentCode string) ([]model.BomEdge, error)
	FindByChild(ctx context.Context, childCode string) ([]model.BomEdge, error)
	FindByParentAndChild(ctx context.Context, parentCode, childCode string) (*model.BomEdge, error)
	Update(ctx context.Context, e *model.BomEdge) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) error

	// Tx variants for use inside a transaction — callers pass the tx instance.
	CreateTx(tx *gorm.DB, e *model.BomEdge) error
	UpdateTx(tx *gorm.DB, e *model.BomEdge) error
	FindByParentAndChildTx(tx *gorm.DB, parentCode, childCode string) (*model.BomEdge, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type bomEdgeRepo struct{ db *gorm.DB }

func NewBomEdgeRepository(db *gorm.DB) BomEdgeRepository { return &bomEdgeRepo{db: db} }

func (r *bomEdgeRepo) Create(ctx context.Context, e *model.BomEdge) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *bomEdgeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BomEdge, error) {
	var e model.BomEdge
	err := r.db.WithContext(ctx).First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *bomEdgeRepo) FindAll(ctx context.Context) ([]model.BomEdge, error) {
	var edges []model.BomEdge
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&edges).Error
	return edges, err
}

func (r *bomEdgeRepo) FindByParent(ctx context.Context, parentCode string) ([]model.BomEdge, error) {
	var edges []model.BomEdge
	err := r.db.WithContext(ctx).
		Where("parent_code = ?", parentCode).
		Order("created_at ASC, id ASC").
		Find(&edges).Error
	return edges, err
}

func (r *bomEdgeRepo) FindByChild(ctx context.Context, childCode string) ([]model.BomEdge, error) {
	var edges []model.BomEdge
	err := r.db.WithContext(ctx).
		Where("child_code = ?", childCode).
		Order("created_at ASC, id ASC").
		Find(&edges).Error
	return edges, err
}

func (r *bomEdgeRepo) FindByParentAndChild(ctx context.Context, parentCode, childCode string) (*model.BomEdge, error) {
	var e model.BomEdge
	err := r.db.WithContext(ctx).
		Where("parent_code = ? AND child_code = ?", parentCode, childCode).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *bomEdgeRepo) Update(ctx context.Context, e *model.BomEdge) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *bomEdgeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.BomEdge{}, id).Error
}

func (r *bomEdgeRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&model.BomEdge{}, "id IN ?", ids).Error
}

func (r *bomEdgeRepo) CreateTx(tx *gorm.DB, e *model.BomEdge) error {
	return tx.Create(e).Error
}

func (r *bomEdgeRepo) UpdateTx(tx *gorm.DB, e *model.BomEdge) error {
	return tx.Save(e).Error
}

func (r *bomEdgeRepo) FindByParentAndChildTx(tx *gorm.DB, parentCode, childCode string) (*model.BomEdge, error) {
	var e model.BomEdge
	err := tx.Where("parent_code = ? AND child_code = ?", parentCode, childCode).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *bomEdgeRepo) DB() *gorm.DB { return r.db }
