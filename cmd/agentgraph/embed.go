package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// embedPreview is how many leading components are printed per vector.
const embedPreview = 5

func newEmbedCmd(application *app) *cobra.Command {
	return &cobra.Command{
		Use:     "embed <text>...",
		Short:   "Embed texts with the Gemini embedding model",
		Example: `  agentgraph embed "Olá, mundo" "Quem descobriu a América?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := application.cfg.RequireGoogle(); err != nil {
				return err
			}
			ctx := cmd.Context()
			provider, err := application.geminiProvider(ctx)
			if err != nil {
				return err
			}

			vectors, err := provider.Embed(ctx, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, vec := range vectors {
				preview := vec[:min(len(vec), embedPreview)]
				values := make([]string, len(preview))
				for j, v := range preview {
					values[j] = fmt.Sprintf("%.4f", v)
				}
				fmt.Fprintf(out, "%q: %d dimensões [%s ...]\n", args[i], len(vec), strings.Join(values, ", "))
			}
			return nil
		},
	}
}
