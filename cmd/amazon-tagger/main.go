package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/amazon-tagger/internal/cli"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/config"
	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/logging"
)

func main() {
	var configFile string
	var verbose bool

	// Global flags
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	subcommand, subArgs := args[0], args[1:]

	cfg, err := loadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Observability.Logging.Level = "debug"
	}

	if err := dispatch(subcommand, subArgs, cfg); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(subcommand string, args []string, cfg *config.Config) error {
	switch subcommand {
	case "run":
		flags, err := cli.ParseRunFlags(args, os.Stderr)
		if err != nil {
			return err
		}
		if flags.Verbose {
			cfg.Observability.Logging.Level = "debug"
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return cli.RunReconcile(ctx, cfg, flags, os.Stdout, newLogger(cfg, "tagger"))

	case "import-ledger":
		flags, err := cli.ParseImportFlags(args, os.Stderr)
		if err != nil {
			return err
		}
		return cli.RunImportLedger(cfg, flags, os.Stdout, newLogger(cfg, "import"))

	case "runs":
		flags, err := cli.ParseRunsFlags(args, os.Stderr)
		if err != nil {
			return err
		}
		return cli.RunHistory(cfg, flags, os.Stdout)

	case "serve":
		flags, err := cli.ParseServeFlags(args, os.Stderr)
		if err != nil {
			return err
		}
		if flags.Verbose {
			cfg.Observability.Logging.Level = "debug"
		}
		return cli.RunServe(cfg, flags, newLogger(cfg, "api"))

	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %s", subcommand)
	}
}

func newLogger(cfg *config.Config, system string) *slog.Logger {
	return logging.NewLoggerWithSystem(cfg.Observability.Logging, system)
}

// loadConfig reads the given file, or config.yaml in the working directory,
// falling back to environment variables.
func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadOrEnv(), nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "amazon-tagger: recategorize and split Amazon charges in your ledger")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  amazon-tagger [global options] <command> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run              Match Amazon reports to the ledger and print the plan (-apply to write it)")
	fmt.Fprintln(os.Stderr, "  import-ledger    Import an OFX/QFX or CSV statement into the local ledger")
	fmt.Fprintln(os.Stderr, "  runs             Show recorded runs (-id to show one run's entries)")
	fmt.Fprintln(os.Stderr, "  serve            Serve the read-only history API")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Global Options:")
	fmt.Fprintln(os.Stderr, "  -config string   Configuration file path")
	fmt.Fprintln(os.Stderr, "  -verbose         Enable verbose logging")
}
