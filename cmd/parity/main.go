// Command parity runs migration sanity checks from the command line.
//
// Usage:
//
//	parity run [--from K --to K] [--forms F1,F2] [--format html|json|table] [--out FILE] [--publish]
//	parity trigger [--from K --to K] [--publish]
//	parity status WORKFLOW_ID [--format html|json|table]
//	parity list [--status S]
//	parity validate-config
//
// Exit code 0 = all checks passed. Exit code 1 = divergence detected. Exit code 2 = error.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/formparity/parity-go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.NewApp().Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
