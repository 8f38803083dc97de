package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flowmrp/internal/dto"
	"flowmrp/internal/model"
	"flowmrp/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EdgeService handles manual edge registration and edits.
type EdgeService interface {
	Create(ctx context.Context, req dto.CreateEdgeRequest) (*dto.EdgeResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateEdgeRequest) (*dto.EdgeResponse, error)
	ListByParent(ctx context.Context, parentCode string) ([]dto.EdgeResponse, error)
}

type edgeService struct {
	edges   repository.BomEdgeRepository
	catalog repository.ItemCatalog
}

func NewEdgeService(edges repository.BomEdgeRepository, catalog repository.ItemCatalog) EdgeService {
	return &edgeService{edges: edges, catalog: catalog}
}

// Create validates before writing: no self-loop, both items registered in the
// catalog, and at most one edge per ordered (parent, child) pair.
func (s *edgeService) Create(ctx context.Context, req dto.CreateEdgeRequest) (*dto.EdgeResponse, error) {
	if req.ParentCode == req.ChildCode {
		return nil, validationf("item %s cannot be a component of itself", req.ParentCode)
	}
	for _, code := range []string{req.ParentCode, req.ChildCode} {
		ok, err := s.catalog.Exists(ctx, code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, validationf("item %s not found in item catalog", code)
		}
	}
	if _, err := s.edges.FindByParentAndChild(ctx, req.ParentCode, req.ChildCode); err == nil {
		return nil, validationf("edge %s → %s already registered", req.ParentCode, req.ChildCode)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = "EA"
	}
	edge := &model.BomEdge{
		ParentCode: req.ParentCode,
		ChildCode:  req.ChildCode,
		Quantity:   req.Quantity,
		Unit:       unit,
	}
	if err := s.edges.Create(ctx, edge); err != nil {
		return nil, err
	}
	return edgeToResponse(edge), nil
}

// Update replaces quantity and unit in full; the codes stay fixed.
func (s *edgeService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateEdgeRequest) (*dto.EdgeResponse, error) {
	edge, err := s.edges.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("edge %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	edge.Quantity = req.Quantity
	if req.Unit != "" {
		edge.Unit = req.Unit
	}
	if err := s.edges.Update(ctx, edge); err != nil {
		return nil, err
	}
	return edgeToResponse(edge), nil
}

func (s *edgeService) ListByParent(ctx context.Context, parentCode string) ([]dto.EdgeResponse, error) {
	edges, err := s.edges.FindByParent(ctx, parentCode)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.EdgeResponse, 0, len(edges))
	for i := range edges {
		resp = append(resp, *edgeToResponse(&edges[i]))
	}
	return resp, nil
}

func edgeToResponse(e *model.BomEdge) *dto.EdgeResponse {
	return &dto.EdgeResponse{
		ID:         e.ID.String(),
		ParentCode: e.ParentCode,
		ChildCode:  e.ChildCode,
		Quantity:   e.Quantity,
		Unit:       e.Unit,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
}
