package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corvidlabs/corvid/internal/router"
)

// RouteCmd prints the Tiered Router's decision for an input without
// executing it — useful for debugging manifest categories and classifier
// behavior.
func RouteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "route <input>",
		Short: "Show the route a given input would take, without executing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			result := app.Router.Route(cmd.Context(), input)
			printRoute(result)
			return nil
		},
	}
}

func printRoute(result router.Result) {
	fmt.Printf("kind: %s\n", result.Kind)
	switch result.Kind {
	case router.KindInstant:
		fmt.Printf("answer: %s\n", result.Answer)
	case router.KindBashShortcut:
		fmt.Printf("command: %s\n", result.Command)
	default:
		fmt.Printf("agent_type: %s\n", result.AgentType)
		fmt.Printf("prompt_tier: %s\n", result.PromptTier)
		fmt.Printf("confidence: %.2f\n", result.Confidence)
		fmt.Printf("tools: %s\n", strings.Join(result.Tools, ", "))
		if len(result.Skills) > 0 {
			fmt.Printf("skills: %s\n", strings.Join(result.Skills, ", "))
		}
	}
}
