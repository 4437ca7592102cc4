package main

import (
	"fmt"

	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the support workflow: steps, routing
rules and the memory finalizer. With --session the steps visited by that session are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		steps, rules, finalizer := app.Engine.Workflow()
		w := graph.Workflow{Steps: steps, Rules: rules, Finalizer: finalizer}

		var overlay *graph.Overlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			state, err := app.Engine.Inspect(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			overlay = graph.OverlayFromTrace(state.ExecutionTrace)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(w, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("session", "s", "", "Highlight the path taken by this session")
}
