package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teemow/sessionbill/internal/config"
	"github.com/teemow/sessionbill/internal/logging"
)

// rootCmd represents the base command for the sessionbill application
var rootCmd = &cobra.Command{
	Use:   "sessionbill",
	Short: "Turns calendar sessions into client invoices",
	Long: `sessionbill reads the sessions of a billing period from Google Calendar
(or an iCalendar export), matches them to the clients in clients.yaml and
renders one invoice per private client or agency.

It can run as:
  - A standalone CLI tool (default: generate invoices for last month)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

// version will be set by main
var version = "dev"

var (
	configFile string
	logLevel   string
	logFormat  string

	settings *config.Settings
	logger   *slog.Logger
)

// SetVersion sets the version for the root command
func SetVersion(ver string) {
	version = ver
	rootCmd.Version = ver
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "sessionbill version %s\n" .Version}}`)

	// If no subcommand is provided, run the generate command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "generate")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Settings file (default: ./sessionbill.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text, json")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newClientsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadSettings reads .env, the settings file and the environment, then
// overlays the flags of the command being run.
func loadSettings(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	v, err := config.NewViper(configFile)
	if err != nil {
		return err
	}

	bindings := map[string]string{
		"log.level":    "log-level",
		"log.format":   "log-format",
		"renderer":     "renderer",
		"output_dir":   "output",
		"on_ambiguous": "on-ambiguous",
		"ics_file":     "ics",
	}
	for key, name := range bindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	settings, err = config.LoadSettings(v)
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logger, err = logging.New(settings.Log.Level, settings.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
