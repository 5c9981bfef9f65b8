package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/longkedev/lkcalc/internal/style"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the functions formulas can call",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		names := newEngine().GetSupportedFunctions()
		fmt.Println(style.Bold.Render(fmt.Sprintf("%d functions", len(names))))
		fmt.Print(columnize(names, 6))
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
}

// columnize lays names out left to right in rows of perRow, each column
// padded to the longest name.
func columnize(names []string, perRow int) string {
	if len(names) == 0 {
		return ""
	}

	width := 0
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}

	var b strings.Builder
	for i, name := range names {
		last := i == len(names)-1
		if (i+1)%perRow == 0 || last {
			b.WriteString(name)
			b.WriteByte('\n')
			continue
		}
		b.WriteString(name)
		b.WriteString(strings.Repeat(" ", width-len(name)+2))
	}
	return b.String()
}
