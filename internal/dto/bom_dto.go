package dto

import (
	"github.com/shopspring/decimal"
)

// TreeNode is one node of the composition tree returned by GET /v1/bom/tree.
// The root node carries no quantity/unit — it is the composition target, not
// a component of anything — so Quantity is a pointer omitted at the root.
type TreeNode struct {
	ItemCode string           `json:"item_code"`
	ItemName string           `json:"item_name"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Unit     string           `json:"unit,omitempty"`
	Children []TreeNode       `json:"children"`
}

type CreateEdgeRequest struct {
	ParentCode string          `json:"parent_code" validate:"required"`
	ChildCode  string          `json:"child_code" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"required,gt=0"`
	Unit       string          `json:"unit"`
}

// UpdateEdgeRequest replaces quantity and unit in full; codes are immutable.
type UpdateEdgeRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required,gt=0"`
	Unit     string          `json:"unit"`
}

type EdgeResponse struct {
	ID         string          `json:"id"`
	ParentCode string          `json:"parent_code"`
	ChildCode  string          `json:"child_code"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	CreatedAt  string          `json:"created_at"`
}

type CopyRequest struct {
	SourceCode string `json:"source_code" validate:"required"`
	TargetCode string `json:"target_code" validate:"required"`
}

// CopySummary reports how many edges the copy wrote vs. how many already
// existed on the target side and were skipped.
type CopySummary struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type DeleteEdgesRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// IngestRow is one spreadsheet row. A blank ParentName means "same parent as
// the previous row with a non-blank parent name" (forward-fill).
type IngestRow struct {
	ParentName string          `json:"parent_name"`
	ChildName  string          `json:"child_name" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"required,gt=0"`
	Unit       string          `json:"unit"`
	// RowNumber is the 1-based spreadsheet row for error messages; zero for
	// rows that did not come from a file.
	RowNumber int `json:"-"`
}

type IngestRequest struct {
	Rows []IngestRow `json:"rows" validate:"required,min=1,dive"`
}

type IngestSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// UploadSessionResponse is returned by the staged-upload endpoint: the parsed
// rows for preview plus the token that commits them.
type UploadSessionResponse struct {
	Token     string      `json:"token"`
	Rows      []IngestRow `json:"rows"`
	ExpiresAt string      `json:"expires_at"`
}
