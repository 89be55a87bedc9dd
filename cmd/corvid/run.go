package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corvidlabs/corvid/internal/router"
)

// RunCmd routes an input and carries it through to a final answer: early
// route exits resolve directly, everything else runs through the
// Simple-Task Agent.
func RunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run <input>",
		Short: "Route and execute an input, printing the final answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			answer, err := executeInput(cmd.Context(), app, input)
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
}

func executeInput(ctx context.Context, app *App, input string) (string, error) {
	result := app.Router.Route(ctx, input)
	switch result.Kind {
	case router.KindInstant:
		return result.Answer, nil
	case router.KindBashShortcut:
		return result.Resolve(ctx)
	}

	res, err := app.Agent.Run(ctx, input)
	if err != nil {
		return "", fmt.Errorf("simple-task agent: %w", err)
	}
	if res.BailOut {
		return "", fmt.Errorf("this request needs a full agent invocation: %s", res.BailWhy)
	}
	return res.Answer, nil
}
