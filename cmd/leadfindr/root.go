package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/leadfindr/internal/api"
	"github.com/user/leadfindr/internal/session"
	"github.com/user/leadfindr/internal/storage"
	"github.com/user/leadfindr/internal/util"
)

var (
	cfgFile string
	cfg     *util.Config
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "leadfindr",
	Short: "Business visibility scanner client",
	Long: `Lead Findr scans a region for businesses and scores each one's
digital presence (DPI). This client drives the backend API:
- run scans per city, state or country and watch their progress
- browse, filter and map the scored businesses
- export result sets to csv, json or xlsx
- manage your account, plan and billing`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.leadfindr/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("api-url", "",
		"backend API base URL (overrides config)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("api_base_url", rootCmd.PersistentFlags().Lookup("api-url"))

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(businessesCmd)
	rootCmd.AddCommand(citiesCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(billingCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(versionCmd)

	// Add shell completion
	rootCmd.AddCommand(completionCmd)
}

func initConfig() {
	var err error
	cfg, err = util.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	util.InitLogger(cfg.LogLevel, cfg.LogFile)
}

// buildClient opens local storage, restores any saved login and wires
// the API client to the session, so a 401 anywhere drops the login.
func buildClient() (*api.Client, *session.Session, error) {
	if err := util.EnsureDir(cfg.DataDir); err != nil {
		return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := storage.Initialize(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	sess := session.New(storage.NewSessionStorage(db))
	if _, err := sess.Restore(); err != nil {
		util.Warn("failed to restore saved login: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	client.SetTokenSource(sess)
	return client, sess, nil
}

// requireAuth rejects commands that need a login before any network
// round trip happens.
func requireAuth(sess *session.Session) error {
	if !sess.Authenticated() {
		return fmt.Errorf("not logged in; run 'leadfindr login' first")
	}
	return nil
}

// cmdContext returns the per-command request context.
func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.RequestTimeout)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("leadfindr version 1.0.0")
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for leadfindr.

To load completions:

Bash:
  $ source <(leadfindr completion bash)

Zsh:
  $ source <(leadfindr completion zsh)

Fish:
  $ leadfindr completion fish | source

PowerShell:
  PS> leadfindr completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}
