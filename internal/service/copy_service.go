package service

import (
	"context"
	"fmt"

	"flowmrp/internal/dto"
	"flowmrp/internal/model"
	"flowmrp/internal/repository"

	"github.com/rs/zerolog/log"
)

// CopyService duplicates the composition subtree of one item onto another.
type CopyService interface {
	CopySubtree(ctx context.Context, sourceCode, targetCode string) (*dto.CopySummary, error)
}

type copyService struct {
	edges   repository.BomEdgeRepository
	catalog repository.ItemCatalog
	audit   AuditLogger
}

func NewCopyService(edges repository.BomEdgeRepository, catalog repository.ItemCatalog, audit AuditLogger) CopyService {
	return &copyService{edges: edges, catalog: catalog, audit: audit}
}

// CopySubtree walks every (parent, child) pair reachable from sourceCode and
// recreates the structure under targetCode. First-level pairs (source, c)
// map to (target, c); deeper pairs keep their own parent code — the child
// item under the target is the same catalog item, so its existing composition
// is shared, not re-keyed. Pairs whose mapped (parent, child) already exist
// are skipped, never overwritten; quantity and unit are copied verbatim.
//
// The target must exist in the item catalog — that is checked before any
// write. A source with no outgoing edges is a no-op success.
func (s *copyService) CopySubtree(ctx context.Context, sourceCode, targetCode string) (*dto.CopySummary, error) {
	if sourceCode == targetCode {
		return nil, validationf("source and target item are the same (%s)", sourceCode)
	}
	ok, err := s.catalog.Exists(ctx, targetCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, validationf("target item %s not found in item catalog", targetCode)
	}

	// One consistent snapshot, same trade-off as tree building.
	all, err := s.edges.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	byParent := groupByParent(all)
	existing := make(map[string]bool, len(all))
	for _, e := range all {
		existing[pairKey(e.ParentCode, e.ChildCode)] = true
	}

	summary := &dto.CopySummary{}
	onPath := make(map[string]bool)

	var walk func(code string) error
	walk = func(code string) error {
		if onPath[code] {
			return &StructureError{ItemCode: code}
		}
		onPath[code] = true
		defer delete(onPath, code)

		for _, e := range byParent[code] {
			mappedParent := e.ParentCode
			if mappedParent == sourceCode {
				mappedParent = targetCode
			}
			key := pairKey(mappedParent, e.ChildCode)
			if existing[key] {
				summary.Skipped++
			} else {
				copied := &model.BomEdge{
					ParentCode: mappedParent,
					ChildCode:  e.ChildCode,
					Quantity:   e.Quantity,
					Unit:       e.Unit,
				}
				if err := s.edges.Create(ctx, copied); err != nil {
					return err
				}
				existing[key] = true
				summary.Created++
			}
			if err := walk(e.ChildCode); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(sourceCode); err != nil {
		_ = s.audit.Record(ctx, AuditSubtreeCopy, sourceCode, targetCode, false, err.Error())
		return nil, err
	}

	log.Info().
		Str("source", sourceCode).
		Str("target", targetCode).
		Int("created", summary.Created).
		Int("skipped", summary.Skipped).
		Msg("subtree copied")
	_ = s.audit.Record(ctx, AuditSubtreeCopy, sourceCode, targetCode, true,
		fmt.Sprintf("created %d, skipped %d", summary.Created, summary.Skipped))
	return summary, nil
}

func pairKey(parent, child string) string { return parent + "\x00" + child }
