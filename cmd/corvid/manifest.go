package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ManifestCmd groups the manifest sync/show subcommands.
func ManifestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect or refresh the routing manifest",
	}
	cmd.AddCommand(manifestSyncCmd(app))
	cmd.AddCommand(manifestShowCmd(app))
	return cmd
}

func manifestSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Append any tool/skill missing from the manifest's index",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Manifest.Sync(app.Registry)
			if err != nil {
				return err
			}
			fmt.Printf("tools added: %d\n", len(result.ToolsAdded))
			fmt.Printf("skills added: %d\n", len(result.SkillsAdded))
			for skill, cat := range result.SkillsAssigned {
				fmt.Printf("  %s -> category %s\n", skill, cat)
			}
			return nil
		},
	}
}

func manifestShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current manifest as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := app.Manifest.ExportJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
