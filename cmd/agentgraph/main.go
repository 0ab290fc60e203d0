// Command agentgraph runs the agent workflows from the command line.
//
// Usage:
//
//	agentgraph respond "Quem descobriu a América?"
//	agentgraph classify --batch "Quanto é 2 + 2?" "Quem é Albert Einstein?"
//	agentgraph calc "Quanto é 15,5 + 42?"
//	agentgraph research "Qual a cotação do dólar hoje?"
//	agentgraph diagram research
//	agentgraph vector ping
//
// Configuration is read from the environment and from .env files; see
// internal/config for the variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
