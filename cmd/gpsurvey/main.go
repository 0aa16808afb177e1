// Command gpsurvey computes dashboard views from survey records on the
// command line, uploads records and runs the API over an in-memory store.
package main

import (
	"os"

	"github.com/turtacn/gpsurvey-insight/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
