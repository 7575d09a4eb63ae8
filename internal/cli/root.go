package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// app is the state shared by the commands of one invocation
type app struct {
	cfg    *Config
	client *Client
}

func (a *app) output(cmd *cobra.Command) *Output {
	return NewOutput(a.cfg.Output, cmd.OutOrStdout())
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "expense",
		Short: "CLI tool for the expense tracker API",
		Long: `expense is a CLI tool for the expense tracker JSON API.

It signs up and logs in with a session cookie kept in a local file, and
records, lists and summarises transactions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Output != "text" && a.cfg.Output != "json" {
				return fmt.Errorf("unknown output format %q", a.cfg.Output)
			}

			cookie, err := a.cfg.LoadCookie()
			if err != nil {
				return fmt.Errorf("failed to read cookie file: %w", err)
			}

			// Create HTTP client
			a.client = NewClient(a.cfg.ServerURL, cookie)
			a.client.OnCookie = a.cfg.SaveCookie
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfg.ServerURL, "server", a.cfg.ServerURL, "Server URL (env: EXPENSE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.CookieFile, "cookie-file", a.cfg.CookieFile, "Session cookie file (env: EXPENSE_COOKIE_FILE)")
	rootCmd.PersistentFlags().StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newSignUpCmd(a))
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newLogoutCmd(a))
	rootCmd.AddCommand(newLogoutAllCmd(a))
	rootCmd.AddCommand(newMeCmd(a))
	rootCmd.AddCommand(newUsersCmd(a))
	rootCmd.AddCommand(newUserCmd(a))
	rootCmd.AddCommand(newTxCmd(a))
	rootCmd.AddCommand(newHealthCmd(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
