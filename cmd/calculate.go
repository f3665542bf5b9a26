package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-busfactor/internal/config"
	"github.com/naka-gawa/github-busfactor/internal/domain"
	"github.com/naka-gawa/github-busfactor/internal/gateway"
	"github.com/naka-gawa/github-busfactor/internal/output"
	"github.com/naka-gawa/github-busfactor/internal/ratelimit"
	"github.com/naka-gawa/github-busfactor/internal/usecase"
)

func newCalculateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Finds popular repositories of a language with a low bus factor",
		Long: `Lists the top repositories of a language and, for each one, checks whether
its top contributor holds at least --threshold of the contributions among the
most active contributors. Matching projects are printed as they are found.`,
		Example: `  busfactor calculate --language rust --project-count 50
  busfactor calculate -l go -p 300 --sort forks --threshold 0.8 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runCalculate(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP(config.KeyLanguage, "l", "", "Programming language to search for (required)")
	flags.IntP(config.KeyProjectCount, "p", 0, fmt.Sprintf("Number of top projects to inspect, at most %d (required)", gateway.MaxSearchResults))
	flags.StringP(config.KeySort, "s", domain.SortStars.String(), fmt.Sprintf("Repository ranking: %s", strings.Join(domain.SortNames(), ", ")))
	flags.Float64P(config.KeyThreshold, "t", 0.75, "Minimum share of the top contributor, between 0 and 1")
	flags.Int(config.KeyMaxRepoRequests, 1, "Maximum concurrent repository page requests")
	flags.Int(config.KeyMaxContribRequests, 10, "Maximum concurrent contributor requests")
	flags.Float64(config.KeyRequestsPerSecond, 0, "Pace requests per rate pool (0 disables pacing)")
	return cmd
}

func runCalculate(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	githubGateway, err := gateway.NewGitHubGateway(cfg.GatewayOptions(), logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	budgets, err := githubGateway.FetchBudgets(ctx)
	if err != nil {
		return fmt.Errorf("failed to read the initial rate limit: %w", err)
	}
	logger.Debug("initial rate budgets",
		zap.Int("search_remaining", budgets.Search.Remaining),
		zap.Int("core_remaining", budgets.Core.Remaining),
	)

	calculator, err := usecase.NewCalculatorFromBudgets(githubGateway, budgets, cfg.Threshold, logger,
		ratelimit.WithPacer(cfg.RequestsPerSecond))
	if err != nil {
		return err
	}

	results := calculator.Calculate(ctx, usecase.Request{
		Query:              domain.SearchQuery{Language: cfg.Language, Sort: cfg.Sort},
		ProjectCount:       cfg.ProjectCount,
		MaxRepoRequests:    cfg.MaxRepoRequests,
		MaxContribRequests: cfg.MaxContribRequests,
	})
	return printResults(ctx, output.NewPrinter(cfg.Output, cmd.OutOrStdout()), results)
}

// printResults drains results into printer. Whatever arrived before an
// interruption is still flushed.
func printResults(ctx context.Context, printer output.Printer, results <-chan domain.BusFactor) error {
	for result := range results {
		if err := printer.Print(result); err != nil {
			return fmt.Errorf("failed to print result: %w", err)
		}
	}
	if err := printer.Flush(); err != nil {
		return fmt.Errorf("failed to print results: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("calculation interrupted: %w", err)
	}
	return nil
}
