package cli

import (
	"flag"
	"fmt"
	"io"
)

// RunFlags are the flags of the run command
type RunFlags struct {
	Apply       bool
	ItemsPath   string
	OrdersPath  string
	RefundsPath string
	JSON        bool
	Concurrency int
	Verbose     bool
}

// ParseRunFlags parses the run command's flags
func ParseRunFlags(args []string, output io.Writer) (RunFlags, error) {
	var flags RunFlags
	fs := newFlagSet("run", output)
	fs.BoolVar(&flags.Apply, "apply", false, "Apply the plan to the ledger (default is a dry run)")
	fs.StringVar(&flags.ItemsPath, "items", "", "Amazon items report (overrides config)")
	fs.StringVar(&flags.OrdersPath, "orders", "", "Amazon orders and shipments report (overrides config)")
	fs.StringVar(&flags.RefundsPath, "refunds", "", "Amazon refunds report (optional, overrides config)")
	fs.BoolVar(&flags.JSON, "json", false, "Print the plan as JSON")
	fs.IntVar(&flags.Concurrency, "concurrency", 0, "Parallel ledger mutations (0 = config value)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	return flags, nil
}

// ImportFlags are the flags of the import-ledger command
type ImportFlags struct {
	Path   string
	Format string // "ofx", "csv" or "" to detect from the extension
}

// ParseImportFlags parses the import-ledger command's flags. The file may
// also be given as the first positional argument.
func ParseImportFlags(args []string, output io.Writer) (ImportFlags, error) {
	var flags ImportFlags
	fs := newFlagSet("import-ledger", output)
	fs.StringVar(&flags.Path, "file", "", "Statement file to import (.ofx, .qfx or .csv)")
	fs.StringVar(&flags.Format, "format", "", "Statement format: ofx or csv (default: from extension)")
	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	if flags.Path == "" && fs.NArg() > 0 {
		flags.Path = fs.Arg(0)
	}
	if flags.Path == "" {
		return flags, fmt.Errorf("import-ledger: a statement file is required")
	}
	return flags, nil
}

// RunsFlags are the flags of the runs command
type RunsFlags struct {
	Limit int
	RunID string
}

// ParseRunsFlags parses the runs command's flags
func ParseRunsFlags(args []string, output io.Writer) (RunsFlags, error) {
	var flags RunsFlags
	fs := newFlagSet("runs", output)
	fs.IntVar(&flags.Limit, "limit", 20, "Number of runs to show")
	fs.StringVar(&flags.RunID, "id", "", "Show the plan entries of one run")
	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	return flags, nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	Verbose bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string, output io.Writer) (ServeFlags, error) {
	var flags ServeFlags
	fs := newFlagSet("serve", output)
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (0 = config value)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	return flags, nil
}

func newFlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	return fs
}
