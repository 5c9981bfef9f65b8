package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/longkedev/lkcalc/formula"
	"github.com/longkedev/lkcalc/internal/sheet"
	"github.com/longkedev/lkcalc/internal/style"
)

var (
	evalCellsFile string
	evalAddress   string
	evalTokens    bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <formula>...",
	Short: "Evaluate formulas and print their results",
	Long: `Evaluate one or more formulas and print each result on its own line.

A leading "=" is accepted and stripped, so spreadsheet cell text can be
pasted as-is. With --cells, references like A1 resolve against the
given TOML file; without it every reference is 0. --address names the
cell the formula is evaluated at, which matters for circular reference
detection when the cells file contains formulas.

Examples:
  lkcalc eval "1+2*3"
  lkcalc eval "=SUM(1,2,3)" "AVERAGE(2,4,6)"
  lkcalc eval --cells sheet.toml "SUM(A1,B1)*2"
  lkcalc eval --cells sheet.toml --address C1 "A1+B1"
  lkcalc eval --tokens 'IF(LEN("abc")>2, "long", "short")'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalCellsFile, "cells", "", "TOML file of cell values backing references")
	evalCmd.Flags().StringVar(&evalAddress, "address", "", "Cell address the formula evaluates at")
	evalCmd.Flags().BoolVar(&evalTokens, "tokens", false, "Print the token stream before each result")
}

func runEval(cmd *cobra.Command, args []string) error {
	address := strings.ToUpper(strings.TrimSpace(evalAddress))
	if address != "" && !formula.IsCellAddress(address) {
		return fmt.Errorf("invalid --address %q", evalAddress)
	}

	engine := newEngine()
	if evalCellsFile != "" {
		store := sheet.New(engine)
		if err := store.Load(evalCellsFile); err != nil {
			return err
		}
	}

	for _, arg := range args {
		text := strings.TrimPrefix(strings.TrimSpace(arg), "=")
		if evalTokens {
			fmt.Println(style.Dim.Render(tokenLine(text)))
		}
		result, err := engine.Calculate(text, address)
		if err != nil {
			return err
		}
		fmt.Println(style.Result.Render(formula.Format(result)))
	}
	return nil
}

// tokenLine renders the lexer's view of a formula on one line, e.g.
// "Number(1) Operator(+) Number(2)".
func tokenLine(text string) string {
	tokens := formula.NewLexer(text).Tokenize()
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type == formula.TokenEOF {
			break
		}
		parts = append(parts, tok.String())
	}
	if len(parts) == 0 {
		return "(no tokens)"
	}
	return strings.Join(parts, " ")
}
