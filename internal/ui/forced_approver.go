package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dv-site/dvload/pkg/dvload"
)

// ForcedApprover implements the Approver interface for forced
// (non-interactive) approval. It displays a countdown and automatically
// approves afterwards, used when the --force flag is provided.
type ForcedApprover struct {
	verbose bool
}

// NewForcedApprover creates a new ForcedApprover.
func NewForcedApprover(verbose bool) dvload.Approver {
	return &ForcedApprover{verbose: verbose}
}

// RequestApproval displays a countdown and automatically approves after it.
func (a *ForcedApprover) RequestApproval(ctx context.Context, table string) (bool, error) {
	fmt.Fprintf(os.Stderr, "\nWARNING: every row in '%s' will be deleted before loading.\n", table)

	countdownSeconds := int(dvload.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(os.Stderr, "\rClearing in: %d seconds... (Press Ctrl+C to cancel)", i)
			time.Sleep(1 * time.Second)
		}
	}

	fmt.Fprintf(os.Stderr, "\rProceeding with clear...                              \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ dvload.Approver = (*ForcedApprover)(nil)
