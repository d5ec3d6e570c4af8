package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "companion",
		Usage:   "HeadDoWell mental wellness companion in the terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "Transcript file `PATH` (overrides history.path)",
			},
		},
		Commands: []*cli.Command{
			chatCommand(),
			historyCommand(),
			taxonomyCommand(),
			therapiesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
