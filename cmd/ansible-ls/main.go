package main

import (
	"fmt"
	"os"

	"github.com/mcncl/ansible-ls/internal/cli"
)

var (
	// Version information - set during build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(cli.BuildInfo{Version: version, Commit: commit, Date: date}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
