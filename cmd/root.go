// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naka-gawa/github-busfactor/internal/config"
	"github.com/naka-gawa/github-busfactor/internal/gateway"
)

// newRootCmd builds the command tree. Every tree owns its own viper instance.
func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	var cfgFile string
	rootCmd := &cobra.Command{
		Use:   "busfactor",
		Short: "A CLI tool to find GitHub projects that depend on a single contributor.",
		Long: `busfactor scans the most popular GitHub repositories of a language and
reports those where one contributor holds most of the contributions among
the most active contributors.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			return config.ReadFile(v, cfgFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP(config.KeyVerbose, "v", false, "Enable verbose/debug logging")
	flags.StringVar(&cfgFile, "config", "", "Path to a YAML config file")
	flags.String(config.KeyAPIURL, gateway.DefaultAPIURL, "GitHub API base URL (use https://<host>/api/v3 for GitHub Enterprise)")
	flags.String(config.KeyAPIToken, "", "GitHub API token (defaults to $GITHUB_TOKEN)")
	flags.Bool(config.KeyCache, false, "Revalidate repeated requests with ETags")
	flags.StringP(config.KeyOutput, "o", "table", "Output format: table, json or yaml")

	rootCmd.AddCommand(newCalculateCmd(v), newLimitsCmd(v))
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
