// lkcalc is a command line spreadsheet formula calculator.
package main

import (
	"os"

	"github.com/longkedev/lkcalc/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
