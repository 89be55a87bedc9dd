package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// LedgerCmd groups the token ledger reporting subcommand.
func LedgerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect small-model spend",
	}
	cmd.AddCommand(ledgerShowCmd(app))
	return cmd
}

func ledgerShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Summarize every recorded small-model call and bytes saved",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.Ledger.LoadSummary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("input tokens:  %d\n", summary.TotalInputTokens)
			fmt.Printf("output tokens: %d\n", summary.TotalOutputTokens)
			fmt.Printf("cost (USD):    %.4f\n", summary.TotalCostUSD)
			fmt.Printf("bytes saved:   %d\n", summary.TotalBytesSaved)
			fmt.Println("by provider:")
			for provider, count := range summary.ByProvider {
				fmt.Printf("  %-12s %d\n", provider, count)
			}
			fmt.Println("by purpose:")
			for purpose, count := range summary.ByPurpose {
				fmt.Printf("  %-12s %d\n", purpose, count)
			}
			return nil
		},
	}
}
