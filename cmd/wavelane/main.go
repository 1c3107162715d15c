// Command wavelane plays files and URLs with crossfading between tracks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "wavelane",
		Usage:   "Dual-lane crossfading audio player",
		Version: version,
		Commands: []*cli.Command{
			playCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wavelane: %v\n", err)
		os.Exit(1)
	}
}
