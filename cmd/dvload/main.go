package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/dv-site/dvload/internal/cli"
	"github.com/dv-site/dvload/pkg/dvload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(dvload.ExitPanic)
		}
	}()

	if os.Getenv("DVLOAD_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(dvload.ExitCodeForError(err))
	}
}
