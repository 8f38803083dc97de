package service_test

import (
	"context"
	"time"

	"flowmrp/internal/model"
	"flowmrp/internal/repository"
	"flowmrp/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory BomEdgeRepository stub ─────────────────────────────────────────
// Keeps edges in a slice so creation order (the tree's child ordering) is
// preserved, matching the SQL implementation's ORDER BY created_at, id.

type stubEdgeRepo struct {
	edges []*model.BomEdge
}

func newStubEdgeRepo() *stubEdgeRepo { return &stubEdgeRepo{} }

func (r *stubEdgeRepo) Create(_ context.Context, e *model.BomEdge) error {
	return r.insert(e)
}

func (r *stubEdgeRepo) insert(e *model.BomEdge) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.edges = append(r.edges, e)
	return nil
}

func (r *stubEdgeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BomEdge, error) {
	for _, e := range r.edges {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubEdgeRepo) FindAll(_ context.Context) ([]model.BomEdge, error) {
	out := make([]model.BomEdge, 0, len(r.edges))
	for _, e := range r.edges {
		out = append(out, *e)
	}
	return out, nil
}

func (r *stubEdgeRepo) FindByParent(_ context.Context, parentCode string) ([]model.BomEdge, error) {
	var out []model.BomEdge
	for _, e := range r.edges {
		if e.ParentCode == parentCode {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubEdgeRepo) FindByChild(_ context.Context, childCode string) ([]model.BomEdge, error) {
	var out []model.BomEdge
	for _, e := range r.edges {
		if e.ChildCode == childCode {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubEdgeRepo) FindByParentAndChild(_ context.Context, parentCode, childCode string) (*model.BomEdge, error) {
	return r.findPair(parentCode, childCode)
}

func (r *stubEdgeRepo) findPair(parentCode, childCode string) (*model.BomEdge, error) {
	for _, e := range r.edges {
		if e.ParentCode == parentCode && e.ChildCode == childCode {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubEdgeRepo) Update(_ context.Context, e *model.BomEdge) error {
	for i, existing := range r.edges {
		if existing.ID == e.ID {
			r.edges[i] = e
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubEdgeRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, e := range r.edges {
		if e.ID == id {
			r.edges = append(r.edges[:i], r.edges[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubEdgeRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubEdgeRepo) CreateTx(_ *gorm.DB, e *model.BomEdge) error { return r.insert(e) }

func (r *stubEdgeRepo) UpdateTx(_ *gorm.DB, e *model.BomEdge) error {
	return r.Update(context.Background(), e)
}

func (r *stubEdgeRepo) FindByParentAndChildTx(_ *gorm.DB, parentCode, childCode string) (*model.BomEdge, error) {
	return r.findPair(parentCode, childCode)
}

// In-memory stub: nil DB makes runTx call the body directly.
func (r *stubEdgeRepo) DB() *gorm.DB { return nil }

var _ repository.BomEdgeRepository = (*stubEdgeRepo)(nil)

// ── In-memory ItemCatalog stub ───────────────────────────────────────────────

type stubCatalog struct {
	names map[string]string // code → display name
}

func newStubCatalog() *stubCatalog { return &stubCatalog{names: make(map[string]string)} }

func (c *stubCatalog) add(code, name string) *stubCatalog {
	c.names[code] = name
	return c
}

func (c *stubCatalog) NameIndex(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(c.names))
	for k, v := range c.names {
		out[k] = v
	}
	return out, nil
}

func (c *stubCatalog) FindCodeByName(_ context.Context, name string) (string, error) {
	for code, n := range c.names {
		if n == name {
			return code, nil
		}
	}
	return "", gorm.ErrRecordNotFound
}

func (c *stubCatalog) Exists(_ context.Context, code string) (bool, error) {
	_, ok := c.names[code]
	return ok, nil
}

var _ repository.ItemCatalog = (*stubCatalog)(nil)

// ── Audit logger stub ────────────────────────────────────────────────────────

type auditRecord struct {
	action    string
	parent    string
	child     string
	succeeded bool
	detail    string
}

type stubAudit struct {
	records []auditRecord
}

func (a *stubAudit) Record(_ context.Context, action, parentCode, childCode string, succeeded bool, detail string) error {
	a.records = append(a.records, auditRecord{action, parentCode, childCode, succeeded, detail})
	return nil
}

var _ service.AuditLogger = (*stubAudit)(nil)

// ── Helpers ──────────────────────────────────────────────────────────────────

func seedEdge(repo *stubEdgeRepo, parent, child string, qty float64, unit string) *model.BomEdge {
	e := &model.BomEdge{
		ID:         uuid.New(),
		ParentCode: parent,
		ChildCode:  child,
		Quantity:   decimal.NewFromFloat(qty),
		Unit:       unit,
		CreatedAt:  time.Now(),
	}
	repo.edges = append(repo.edges, e)
	return e
}
