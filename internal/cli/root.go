// Package cli implements the lkcalc command tree.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longkedev/lkcalc/formula"
	"github.com/longkedev/lkcalc/internal/style"
)

var (
	configPath string
	noColor    bool

	// cfg is loaded before any command runs
	cfg *Config
)

var rootCmd = &cobra.Command{
	Use:   "lkcalc",
	Short: "Evaluate spreadsheet formulas from the command line",
	Long: `lkcalc is a spreadsheet formula calculator.

It evaluates the formula language of spreadsheet cells: arithmetic with
spreadsheet precedence, comparisons, text concatenation, cell
references like A1, and the built-in function library (SUM, IF, LEN,
ROUND, ...). Cell references resolve against a TOML cells file; without
one, every reference is 0.

Configuration is read from lkcalc.toml in the working directory, or
from the file named by --config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return err
		}
		if noColor || !cfg.Output.Color {
			style.Disable()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default lkcalc.toml if present)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// newEngine builds a formula engine from the loaded configuration.
func newEngine() *formula.Engine {
	return formula.NewEngine(cfg.formulaConfig())
}

// errorLine renders a failure with its spreadsheet error label when it
// has one, e.g. "#NAME? unknown function: NOSUCHFN".
func errorLine(err error) string {
	var formulaErr *formula.Error
	if errors.As(err, &formulaErr) {
		return style.Error.Render(formulaErr.Label()) + " " + err.Error()
	}
	return style.Error.Render("error:") + " " + err.Error()
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		return 1
	}
	return 0
}
