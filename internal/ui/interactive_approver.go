package ui

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dv-site/dvload/pkg/dvload"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the table name
// to confirm a destructive bulk clear.
type InteractiveApprover struct {
	verbose bool
}

// NewInteractiveApprover creates a new InteractiveApprover.
func NewInteractiveApprover(verbose bool) dvload.Approver {
	return &InteractiveApprover{verbose: verbose}
}

// RequestApproval prompts the user to type the table name to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, table string) (bool, error) {
	fmt.Fprintf(os.Stderr, "\nWARNING: You are about to DELETE every row in '%s'\n", table)
	fmt.Fprintln(os.Stderr, "The table will be repopulated from the source files in this run.")
	fmt.Fprintf(os.Stderr, "\nTo confirm, type the table name '%s' and press Enter: ", table)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == table {
			fmt.Fprintln(os.Stderr, "Confirmed. Clearing before load...")
			return true, nil
		}
		fmt.Fprintf(os.Stderr, "Input '%s' does not match table name '%s'. Operation cancelled.\n", input, table)
		return false, nil
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ dvload.Approver = (*InteractiveApprover)(nil)
