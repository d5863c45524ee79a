// Package main provides the entry point for the loom CLI.
package main

import (
	"context"
	"os"

	"github.com/loomworks/loom/internal/cli"
	"github.com/loomworks/loom/internal/signal"
)

// Build information set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=$(git rev-parse --short HEAD) -X main.date=$(date -u +%Y-%m-%d)"
var (
	version string
	commit  string
	date    string
)

func main() {
	handler := signal.NewHandler(context.Background())
	defer handler.Stop()

	info := cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	err := cli.Execute(handler.Context(), info)
	cli.CloseLogFile()
	handler.Stop()
	os.Exit(cli.ExitCodeForError(err))
}
