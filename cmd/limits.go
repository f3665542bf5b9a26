package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-busfactor/internal/config"
	"github.com/naka-gawa/github-busfactor/internal/gateway"
	"github.com/naka-gawa/github-busfactor/internal/output"
)

func newLimitsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Shows the remaining GitHub API budget",
		Long: `Shows the REST core and search budgets and the GraphQL budget of the
configured token, to help size a calculation before running it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConnection(v)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			githubGateway, err := gateway.NewGitHubGateway(cfg.GatewayOptions(), logger)
			if err != nil {
				return fmt.Errorf("failed to create GitHub gateway: %w", err)
			}

			ctx := cmd.Context()
			budgets, err := githubGateway.FetchBudgets(ctx)
			if err != nil {
				return fmt.Errorf("failed to read rate limits: %w", err)
			}
			rows := []output.Budget{
				{Resource: "core", RateBudget: budgets.Core},
				{Resource: "search", RateBudget: budgets.Search},
			}

			// GraphQL rejects anonymous clients; REST budgets are still useful then.
			graphql, err := githubGateway.FetchGraphQLBudget(ctx)
			if err != nil {
				logger.Warn("Failed to get GraphQL rate limit", zap.Error(err))
			} else {
				rows = append(rows, output.Budget{Resource: "graphql", RateBudget: graphql})
			}

			return output.PrintBudgets(cmd.OutOrStdout(), cfg.Output, rows)
		},
	}
}
