package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AndersonCRodrigues/langgraph-langsmith/patterns/graph"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool/tavily"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool/webfetch"
	"github.com/AndersonCRodrigues/langgraph-langsmith/workflows"
)

// workflowDef describes a workflow exposed as a subcommand.
type workflowDef struct {
	name      string
	short     string
	example   string
	needsLLM  bool
	construct func(provider ai.Provider, env workflowEnv) (*graph.Graph, error)
}

// workflowEnv carries what constructors need besides the provider.
type workflowEnv struct {
	observer     observability.Provider
	tavilyAPIKey string
}

var workflowDefs = []workflowDef{
	{
		name:    "echo",
		short:   "Copy the question to the answer without calling a model",
		example: `agentgraph echo "Olá"`,
		construct: func(_ ai.Provider, env workflowEnv) (*graph.Graph, error) {
			return workflows.NewEcho(workflows.WithObserver(env.observer))
		},
	},
	{
		name:     "respond",
		short:    "Answer with a single model call",
		example:  `agentgraph respond "Quem descobriu a América?"`,
		needsLLM: true,
		construct: func(provider ai.Provider, env workflowEnv) (*graph.Graph, error) {
			return workflows.NewResponder(provider, workflows.WithObserver(env.observer))
		},
	},
	{
		name:     "classify",
		short:    "Route the question by keywords to a calculation, curiosity or error node",
		example:  `agentgraph classify --batch "Quanto é 2 + 2?" "Quem é Albert Einstein?" "Me fale sobre o clima."`,
		needsLLM: true,
		construct: func(provider ai.Provider, env workflowEnv) (*graph.Graph, error) {
			return workflows.NewClassifier(provider, workflows.WithObserver(env.observer))
		},
	},
	{
		name:     "calc",
		short:    "Answer arithmetic questions with the calculator tools",
		example:  `agentgraph calc "Quanto é 15,5 + 42?"`,
		needsLLM: true,
		construct: func(provider ai.Provider, env workflowEnv) (*graph.Graph, error) {
			return workflows.NewCalculator(provider, nil, workflows.WithObserver(env.observer))
		},
	},
	{
		name:     "sum",
		short:    "Add two comma-separated numbers with a ReAct agent",
		example:  `agentgraph sum "Quanto é 15,5 + 42?"`,
		needsLLM: true,
		construct: func(provider ai.Provider, env workflowEnv) (*graph.Graph, error) {
			return workflows.NewSumAgent(provider, workflows.WithObserver(env.observer))
		},
	},
	{
		name:     "research",
		short:    "Search and read the web in a ReAct loop",
		example:  `agentgraph research "Qual a cotação do dólar hoje?"`,
		needsLLM: true,
		construct: func(provider ai.Provider, env workflowEnv) (*graph.Graph, error) {
			return workflows.NewResearcher(provider, researchCatalog(env.tavilyAPIKey), workflows.WithObserver(env.observer))
		},
	},
}

func researchCatalog(tavilyAPIKey string) *tool.Catalog {
	var searchOptions []tavily.Option
	if tavilyAPIKey != "" {
		searchOptions = append(searchOptions, tavily.WithAPIKey(tavilyAPIKey))
	}
	return tool.NewCatalogWithTools(
		tavily.NewSearchTool(searchOptions...),
		webfetch.NewWebFetchTool(),
	)
}

func lookupWorkflow(name string) (workflowDef, error) {
	for _, def := range workflowDefs {
		if def.name == name {
			return def, nil
		}
	}
	names := make([]string, 0, len(workflowDefs))
	for _, def := range workflowDefs {
		names = append(names, def.name)
	}
	return workflowDef{}, fmt.Errorf("unknown workflow %q (available: %s)", name, strings.Join(names, ", "))
}

func newWorkflowCmds(application *app) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(workflowDefs))
	for _, def := range workflowDefs {
		cmds = append(cmds, newWorkflowCmd(application, def))
	}
	return cmds
}

func newWorkflowCmd(application *app, def workflowDef) *cobra.Command {
	var (
		batch       bool
		concurrency int
		showHistory bool
	)

	cmd := &cobra.Command{
		Use:     def.name + " <question>...",
		Short:   def.short,
		Example: "  " + def.example,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var provider ai.Provider
			if def.needsLLM {
				var err error
				provider, err = application.newProvider(ctx)
				if err != nil {
					return err
				}
			}

			workflow, err := def.construct(provider, workflowEnv{
				observer:     application.observer,
				tavilyAPIKey: application.cfg.TavilyAPIKey,
			})
			if err != nil {
				return fmt.Errorf("build workflow %s: %w", def.name, err)
			}

			questions := []string{strings.Join(args, " ")}
			if batch {
				questions = args
			}

			runs, err := application.askAll(ctx, workflow, questions, concurrency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, run := range runs {
				if batch {
					fmt.Fprintf(out, "Pergunta: %s\nResposta: %s\n", run.question, run.answer)
				} else {
					fmt.Fprintln(out, run.answer)
				}
				if showHistory {
					fmt.Fprintf(out, "Caminho: %s\n", strings.Join(run.history, " -> "))
				}
				if batch {
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&batch, "batch", false, "Treat every argument as a separate question")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum concurrent runs in batch mode")
	cmd.Flags().BoolVar(&showHistory, "show-history", false, "Print the nodes each run visited")
	return cmd
}

type questionRun struct {
	question string
	answer   string
	history  []string
}

// askAll runs every question on workflow concurrently and returns the runs
// in question order. The first failure cancels the remaining runs. A zero
// MaxActivations keeps the workflow's own budget.
func (a *app) askAll(ctx context.Context, workflow *graph.Graph, questions []string, concurrency int) ([]questionRun, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	runs := make([]questionRun, len(questions))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, question := range questions {
		group.Go(func() error {
			answer, result, err := workflows.Ask(groupCtx, workflow, question,
				graph.WithMaxActivations(a.cfg.MaxActivations))
			if err != nil {
				return fmt.Errorf("question %q: %w", question, err)
			}
			a.logger.DebugContext(groupCtx, "run completed",
				"workflow", workflow.Name(),
				"run_id", result.RunID,
				"activations", result.Activations,
				"duration", result.Duration,
			)
			runs[i] = questionRun{question: question, answer: answer, history: result.History}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
