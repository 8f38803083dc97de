package service

import (
	"context"

	"flowmrp/internal/dto"
	"flowmrp/internal/model"
	"flowmrp/internal/repository"
)

// TreeService reconstructs the nested composition tree from the flat edge set.
type TreeService interface {
	BuildTree(ctx context.Context, rootCode string) (*dto.TreeNode, error)
}

type treeService struct {
	edges   repository.BomEdgeRepository
	catalog repository.ItemCatalog
}

func NewTreeService(edges repository.BomEdgeRepository, catalog repository.ItemCatalog) TreeService {
	return &treeService{edges: edges, catalog: catalog}
}

// BuildTree loads the entire edge set and the item name index once, then
// assembles the tree rooted at rootCode recursively. Loading everything up
// front trades memory for a single consistent snapshot — no per-node queries,
// no torn reads within one call.
//
// Child ordering follows edge creation order (the repository's ORDER BY), so
// repeated reads of an unchanged edge set yield identical trees. An unknown
// root or a root with no outgoing edges yields a single childless node, not
// an error; a missing catalog name resolves to "". A cycle in the edge data
// fails the whole call with a StructureError naming the revisited item.
func (s *treeService) BuildTree(ctx context.Context, rootCode string) (*dto.TreeNode, error) {
	all, err := s.edges.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.catalog.NameIndex(ctx)
	if err != nil {
		return nil, err
	}

	byParent := groupByParent(all)

	// onPath tracks ancestors of the node being built, not every node ever
	// visited: an item legitimately appears twice when two branches share a
	// component, and only a true ancestor revisit means a cycle.
	onPath := make(map[string]bool)

	var build func(code string) (*dto.TreeNode, error)
	build = func(code string) (*dto.TreeNode, error) {
		if onPath[code] {
			return nil, &StructureError{ItemCode: code}
		}
		onPath[code] = true
		defer delete(onPath, code)

		node := &dto.TreeNode{
			ItemCode: code,
			ItemName: names[code],
			Children: []dto.TreeNode{},
		}
		for _, e := range byParent[code] {
			child, err := build(e.ChildCode)
			if err != nil {
				return nil, err
			}
			qty := e.Quantity
			child.Quantity = &qty
			child.Unit = e.Unit
			node.Children = append(node.Children, *child)
		}
		return node, nil
	}

	return build(rootCode)
}

// groupByParent indexes edges by parent code preserving slice order.
func groupByParent(edges []model.BomEdge) map[string][]model.BomEdge {
	byParent := make(map[string][]model.BomEdge)
	for _, e := range edges {
		byParent[e.ParentCode] = append(byParent[e.ParentCode], e)
	}
	return byParent
}
