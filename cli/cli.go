// Package cli implements the jobtrack command line interface.
package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/jobtrack"
	"github.com/hupe1980/jobtrack/config"
)

// Execute runs the root command. Failures print to stderr and exit non-zero.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// newApp builds an App from the persistent flags. API keys and other secrets
// come from the environment; a .env file in the working directory is loaded
// first when present.
func (o *rootOptions) newApp() (*jobtrack.App, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	return jobtrack.New(func(opts *jobtrack.Options) {
		opts.Config = cfg
	})
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "jobtrack",
		Short:         "Track job applications across calls, emails and a record workspace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.jobtrack/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newCallCmd(opts),
		newEmailCmd(opts),
		newSearchCmd(opts),
		newStatusCmd(opts),
		newStatsCmd(opts),
		newTestConnectionsCmd(opts),
	)

	return cmd
}

func newCallCmd(opts *rootOptions) *cobra.Command {
	var company string

	cmd := &cobra.Command{
		Use:   "call <transcript-file>",
		Short: "Process a call transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading transcript: %w", err)
			}

			app, err := opts.newApp()
			if err != nil {
				return err
			}
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			res, err := app.ProcessCall(cmd.Context(), string(data), args[0], company)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Call processed successfully for company: %s\n", res.Company)
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company name (skips extraction)")

	return cmd
}

func newEmailCmd(opts *rootOptions) *cobra.Command {
	var id, company string

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Process an email by id, or the latest one for a company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" && company == "" {
				return fmt.Errorf("either --id or --company is required")
			}

			app, err := opts.newApp()
			if err != nil {
				return err
			}
			if err := app.Connect(cmd.Context()); err != nil {
				return err
			}
			defer app.Close()

			res, err := app.ProcessEmail(cmd.Context(), id, company)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Email processed successfully for company: %s\n", res.Company)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "email message id")
	cmd.Flags().StringVar(&company, "company", "", "company name")

	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search tracked companies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.newApp()
			if err != nil {
				return err
			}

			companies := app.SearchCompanies(args[0])

			fmt.Fprintf(cmd.OutOrStdout(), "Found %d companies matching %q:\n", len(companies), args[0])
			for _, name := range sortedKeys(companies) {
				record := companies[name]
				status, _ := record["status"].(string)
				fmt.Fprintf(cmd.OutOrStdout(), "- %s (%s)\n", name, status)
			}
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <company>",
		Short: "Show the current state of one application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.newApp()
			if err != nil {
				return err
			}

			status := app.Status(args[0])
			if len(status.State) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No state tracked for %s\n", status.Company)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Status for %s:\n", status.Company)
			for _, key := range sortedKeys(status.State) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", key, status.State[key])
			}
			return nil
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate application statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.newApp()
			if err != nil {
				return err
			}

			stats := app.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Applications sent:     %d\n", stats.ApplicationsSent)
			fmt.Fprintf(cmd.OutOrStdout(), "Interviews scheduled:  %d\n", stats.InterviewsScheduled)
			fmt.Fprintf(cmd.OutOrStdout(), "Offers received:       %d\n", stats.OffersReceived)
			fmt.Fprintf(cmd.OutOrStdout(), "Rejections:            %d\n", stats.Rejections)
			return nil
		},
	}
}

func newTestConnectionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test-connections",
		Short: "Connect to every configured server and list its tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.newApp()
			if err != nil {
				return err
			}

			results := app.TestConnections(cmd.Context())

			failed := false
			for _, server := range sortedKeys(results) {
				if err := results[server]; err != nil {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s: FAILED (%v)\n", server, err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", server)
				}
			}

			if failed {
				return fmt.Errorf("one or more server connections failed")
			}
			return nil
		},
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
