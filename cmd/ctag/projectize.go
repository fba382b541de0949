package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/ctag/internal/config"
	"github.com/rohankatakam/ctag/internal/output"
)

var projectizeCmd = &cobra.Command{
	Use:   "projectize <token...>",
	Short: "Qualify tokens that name a known project",
	Long: `Print each token, replacing those that name a project in the catalog
with their project- tag. Other tokens are printed unchanged.`,
	Example: `  ctag projectize django myproj`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, store, err := openService(ctx, config.ValidationContextGraph)
		if err != nil {
			return err
		}
		defer store.Close()

		tokens, err := svc.ProjectizeTags(ctx, args)
		if err != nil {
			return err
		}
		return output.WriteTokens(os.Stdout, format(), tokens)
	},
}
