package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AndersonCRodrigues/langgraph-langsmith/internal/mermaid"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
)

var errDiagramOnly = errors.New("provider is not available while rendering diagrams")

// diagramProvider satisfies constructors that require a provider; it is never
// called because diagrams only read the topology.
type diagramProvider struct{}

func (diagramProvider) SendMessage(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return nil, errDiagramOnly
}

func (diagramProvider) IsStopMessage(*ai.ChatResponse) bool { return true }

func newDiagramCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "diagram <workflow>",
		Short:   "Print the Mermaid diagram of a workflow",
		Example: "  agentgraph diagram research > research.mmd",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := lookupWorkflow(args[0])
			if err != nil {
				return err
			}
			workflow, err := def.construct(diagramProvider{}, workflowEnv{})
			if err != nil {
				return fmt.Errorf("build workflow %s: %w", def.name, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), mermaid.Render(workflow.Topology(), nil))
			return nil
		},
	}
}
