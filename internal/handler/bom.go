package handler

import (
	"net/http"

	"flowmrp/internal/apierror"
	"flowmrp/internal/dto"
	"flowmrp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BomHandler exposes the BOM engine: tree reads, manual edge maintenance,
// subtree copy, and guarded deletion.
type BomHandler struct {
	trees   service.TreeService
	edges   service.EdgeService
	copies  service.CopyService
	deletes service.DeleteService
}

func NewBomHandler(trees service.TreeService, edges service.EdgeService, copies service.CopyService, deletes service.DeleteService) *BomHandler {
	return &BomHandler{trees: trees, edges: edges, copies: copies, deletes: deletes}
}

func (h *BomHandler) GetTree(c *gin.Context) {
	tree, err := h.trees.BuildTree(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *BomHandler) Copy(c *gin.Context) {
	var req dto.CopyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	summary, err := h.copies.CopySubtree(c.Request.Context(), req.SourceCode, req.TargetCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *BomHandler) CreateEdge(c *gin.Context) {
	var req dto.CreateEdgeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.edges.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BomHandler) UpdateEdge(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateEdgeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.edges.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListEdges returns the first composition level under ?parent=CODE.
func (h *BomHandler) ListEdges(c *gin.Context) {
	parent := c.Query("parent")
	if parent == "" {
		c.JSON(http.StatusBadRequest, apierror.New("query parameter 'parent' is required"))
		return
	}
	resp, err := h.edges.ListByParent(c.Request.Context(), parent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BomHandler) DeleteEdge(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.deletes.DeleteEdge(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BomHandler) DeleteEdges(c *gin.Context) {
	var req dto.DeleteEdgesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid id: "+raw))
			return
		}
		ids = append(ids, id)
	}
	if err := h.deletes.DeleteEdges(c.Request.Context(), ids); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BomHandler) DeleteByParent(c *gin.Context) {
	deleted, err := h.deletes.DeleteByParent(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BulkDeleteResponse{Deleted: deleted})
}

func (h *BomHandler) DeleteByChild(c *gin.Context) {
	deleted, err := h.deletes.DeleteByChild(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BulkDeleteResponse{Deleted: deleted})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
