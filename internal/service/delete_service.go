package service

import (
	"context"
	"errors"
	"fmt"

	"flowmrp/internal/model"
	"flowmrp/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DeleteService removes BOM edges while enforcing bottom-up deletion order:
// an edge may only be removed when its child item is not itself a parent of
// other edges. Leaves can always go; internal nodes must be emptied first.
type DeleteService interface {
	DeleteEdge(ctx context.Context, id uuid.UUID) error
	// DeleteEdges is best-effort, NOT transactional: ids are processed in
	// sequence, ids that validate are deleted even when a later id fails, and
	// the returned BatchError lists every failed id with its reason.
	DeleteEdges(ctx context.Context, ids []uuid.UUID) error
	DeleteByParent(ctx context.Context, parentCode string) (int, error)
	DeleteByChild(ctx context.Context, childCode string) (int, error)
}

type deleteService struct {
	edges repository.BomEdgeRepository
	audit AuditLogger
}

func NewDeleteService(edges repository.BomEdgeRepository, audit AuditLogger) DeleteService {
	return &deleteService{edges: edges, audit: audit}
}

func (s *deleteService) DeleteEdge(ctx context.Context, id uuid.UUID) error {
	edge, err := s.edges.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("edge %s: %w", id, ErrNotFound)
		}
		return err
	}

	if err := s.validateRemovable(ctx, edge.ChildCode); err != nil {
		_ = s.audit.Record(ctx, AuditEdgeDelete, edge.ParentCode, edge.ChildCode, false, err.Error())
		return err
	}

	if err := s.edges.Delete(ctx, id); err != nil {
		_ = s.audit.Record(ctx, AuditEdgeDelete, edge.ParentCode, edge.ChildCode, false, err.Error())
		return err
	}
	_ = s.audit.Record(ctx, AuditEdgeDelete, edge.ParentCode, edge.ChildCode, true, "")
	return nil
}

func (s *deleteService) DeleteEdges(ctx context.Context, ids []uuid.UUID) error {
	var failures []BatchFailure
	for _, id := range ids {
		if err := s.DeleteEdge(ctx, id); err != nil {
			failures = append(failures, BatchFailure{ID: id, Reason: err.Error()})
		}
	}
	if len(failures) > 0 {
		log.Warn().
			Int("requested", len(ids)).
			Int("failed", len(failures)).
			Msg("batch edge delete completed partially")
		return &BatchError{Failures: failures}
	}
	return nil
}

// DeleteByParent removes every edge under parentCode. Unlike DeleteEdges this
// is all-or-nothing: the set is homogeneous, so every member is validated
// against the bottom-up rule first and the first violation aborts the whole
// call before any removal. Returns the number of edges removed.
func (s *deleteService) DeleteByParent(ctx context.Context, parentCode string) (int, error) {
	edges, err := s.edges.FindByParent(ctx, parentCode)
	if err != nil {
		return 0, err
	}
	return s.deleteSet(ctx, parentCode, "", edges)
}

// DeleteByChild removes every edge pointing at childCode, with the same
// all-or-nothing semantics as DeleteByParent.
func (s *deleteService) DeleteByChild(ctx context.Context, childCode string) (int, error) {
	edges, err := s.edges.FindByChild(ctx, childCode)
	if err != nil {
		return 0, err
	}
	return s.deleteSet(ctx, "", childCode, edges)
}

func (s *deleteService) deleteSet(ctx context.Context, parentCode, childCode string, edges []model.BomEdge) (int, error) {
	if len(edges) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		if err := s.validateRemovable(ctx, e.ChildCode); err != nil {
			_ = s.audit.Record(ctx, AuditEdgeBatchClear, parentCode, childCode, false, err.Error())
			return 0, err
		}
		ids = append(ids, e.ID)
	}
	if err := s.edges.DeleteMany(ctx, ids); err != nil {
		_ = s.audit.Record(ctx, AuditEdgeBatchClear, parentCode, childCode, false, err.Error())
		return 0, err
	}
	_ = s.audit.Record(ctx, AuditEdgeBatchClear, parentCode, childCode, true,
		fmt.Sprintf("removed %d edges", len(ids)))
	return len(ids), nil
}

// validateRemovable rejects removal while childCode still has components of
// its own — deleting the parent edge would orphan a meaningful branch.
func (s *deleteService) validateRemovable(ctx context.Context, childCode string) error {
	children, err := s.edges.FindByParent(ctx, childCode)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return validationf("item %s still has %d component(s); delete those edges first", childCode, len(children))
	}
	return nil
}
