package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/longkedev/lkcalc/internal/history"
	"github.com/longkedev/lkcalc/internal/repl"
	"github.com/longkedev/lkcalc/internal/sheet"
	"github.com/longkedev/lkcalc/internal/style"
)

var (
	replCellsFile string
	replNoHistory bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive formula session",
	Long: `Start an interactive session: type a formula, get its result.

Lines of the form "A1 = 42" assign cells, and later formulas can
reference them. Assigning text that begins with "=" stores a formula,
so "A2 = =A1*2" recomputes as A1 changes. Evaluations are appended to
the history log under ~/.lkcalc.

Commands inside the session: help, cells, functions, history, del A1,
clear, exit.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replCellsFile, "cells", "", "TOML file of cell values to preload")
	replCmd.Flags().BoolVar(&replNoHistory, "no-history", false, "Do not write the history log")
}

func runRepl(cmd *cobra.Command, args []string) error {
	if !style.IsTerminal() {
		return fmt.Errorf("repl needs a terminal; use 'lkcalc eval' for scripted evaluation")
	}

	engine := newEngine()
	store := sheet.New(engine)
	if replCellsFile != "" {
		if err := store.Load(replCellsFile); err != nil {
			return err
		}
	}

	var hist *history.History
	if !replNoHistory {
		if path, err := history.DefaultPath(); err == nil {
			hist = history.New(path)
		}
	}

	p := tea.NewProgram(repl.NewModel(engine, store, hist))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running repl: %w", err)
	}
	return nil
}
