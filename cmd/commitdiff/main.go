// Command commitdiff compares two commits of a git repository.
package main

import (
	"os"

	"github.com/kilupskalvis/commitdiff/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
