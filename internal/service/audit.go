package service

import "context"

// Audit action names as stored in audit entries.
const (
	AuditEdgeDelete     = "edge_delete"
	AuditEdgeBatchClear = "edge_bulk_delete"
	AuditSubtreeCopy    = "subtree_copy"
)

// AuditLogger is the logging collaborator the deletion and copy paths report
// to. The production implementation enqueues onto Redis for the audit worker;
// emission is best-effort and never fails the business operation.
type AuditLogger interface {
	Record(ctx context.Context, action, parentCode, childCode string, succeeded bool, detail string) error
}
