package dvload

import "context"

// Approver gates destructive operations (bulk clear of enrichment data).
// Implementations may prompt interactively or auto-approve after a countdown.
type Approver interface {
	// RequestApproval asks for confirmation to clear the named table.
	// Returns (true, nil) when the operation may proceed.
	RequestApproval(ctx context.Context, table string) (bool, error)
}
