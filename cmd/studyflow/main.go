// Command studyflow is the StudyFlow client: account, plans, dashboard and reminders.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/studyflow/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	if err != nil {
		if !commands.Reported(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
