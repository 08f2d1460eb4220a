// Command blueprint generates a building blueprint and its build script from
// a description and an optional reference image.
//
// Usage:
//
//	GEMINI_API_KEY=gk-...    blueprint [flags]
//	ANTHROPIC_API_KEY=sk-... blueprint run --tui
//	blueprint runs --limit 10
//
// Configuration is read from flags, then the environment (a .env file in the
// working directory is loaded first), then blueprint.yaml, then defaults.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{getenv: os.Getenv, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "blueprint: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries the process boundary so commands can run against fakes.
type app struct {
	getenv func(string) string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger zerolog.Logger
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blueprint",
		Short: "Generate a building blueprint and build script with an LLM",
		Long: `blueprint runs a seven-stage generation chain:

  style -> modules -> (furniture | layout) -> connections -> structure JSON -> code

Commands:
  blueprint        Run a generation (default)
  blueprint run    Run a generation
  blueprint runs   List recorded runs and total spend`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; real environment variables win.
			_ = godotenv.Load()
			level, _ := cmd.Flags().GetString("log")
			return a.setupLogger(level, tuiEnabled(cmd))
		},
		RunE: a.generate,
	}
	root.PersistentFlags().String("config", defaultConfigPath, "Path to the YAML config file (empty skips it)")
	root.PersistentFlags().String("log", "info", "Log level: trace, debug, info, warn, error, disabled")
	root.PersistentFlags().String("output", "", "Directory for logs, code and reports")
	root.PersistentFlags().String("ledger", "", "Path to the run ledger database")
	addRunFlags(root)

	run := &cobra.Command{
		Use:   "run",
		Short: "Run a generation",
		Args:  cobra.NoArgs,
		RunE:  a.generate,
	}
	addRunFlags(run)

	runs := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs and total spend",
		Args:  cobra.NoArgs,
		RunE:  a.listRuns,
	}
	runs.Flags().Int("limit", 20, "Maximum number of runs to list (0 lists all)")

	root.AddCommand(run, runs)
	return root
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("provider", "", "Provider: gemini, anthropic, openai (auto-detected from env vars if omitted)")
	f.String("model", "", "Model ID (default: provider default)")
	f.String("api-key", "", "API key (overrides provider's env var)")
	f.String("base-url", "", "API endpoint override for proxies and compatible servers")
	f.String("materials", "", "Material map file or glob")
	f.String("prompts", "", "Directory with one prompt template per stage (default: built-in)")
	f.String("structure-example", "", "Example structure JSON")
	f.String("code-example", "", "Example build script")
	f.Float64("input-price", 0, "Input price in USD per 1M tokens")
	f.Float64("output-price", 0, "Output price in USD per 1M tokens")
	f.Duration("stage-timeout", 0, "Limit for a single stage call (0 disables)")
	f.String("prompt", "", "Building description (skips the interactive questions)")
	f.String("image", "", "Reference image path (skips the interactive questions)")
	f.Bool("tui", false, "Show an interactive progress view")
}

func tuiEnabled(cmd *cobra.Command) bool {
	if cmd.Flags().Lookup("tui") == nil {
		return false
	}
	on, _ := cmd.Flags().GetBool("tui")
	return on
}

// setupLogger writes human-readable logs to stderr. The progress view owns
// the terminal, so logging is off while it runs.
func (a *app) setupLogger(level string, tui bool) error {
	if tui {
		a.logger = zerolog.Nop()
		return nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	w := zerolog.ConsoleWriter{Out: a.stderr, TimeFormat: time.Kitchen}
	a.logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return nil
}
