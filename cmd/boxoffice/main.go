package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/boxoffice/internal/cli"
	"github.com/eleven-am/boxoffice/pkg/boxoffice"
)

// Set with -ldflags "-X main.gitCommit=... -X main.buildDate=..."
var (
	gitCommit string
	buildDate string
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func Execute() error {
	boxoffice.SetBuildInfo(gitCommit, buildDate)

	cmd := cli.NewRootCommand()
	return cmd.Execute()
}
