package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	stateKey    = "state"
	eventKey    = "event"
	scriptKey   = "script"
	sanitizeKey = "sanitize"
	verboseKey  = "verbose"
)

func main() {
	cmd := &cli.Command{
		Name:  "stitch",
		Usage: "Mount reactive templates into an in-memory tree",
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Mount a template, replay events and print the resulting HTML",
				ArgsUsage: "<template>",
				Flags: append(inputFlags(),
					&cli.BoolFlag{
						Name:  sanitizeKey,
						Usage: "Pass the output through a user generated content HTML policy",
					},
				),
				Action: render,
			},
			{
				Name:      "stats",
				Usage:     "Report template shape, reactive graph size and host mutations",
				ArgsUsage: "<template>",
				Flags:     inputFlags(),
				Action:    stats,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  stateKey,
			Usage: "YAML or JSON file with the initial state",
		},
		&cli.StringSliceFlag{
			Name:  eventKey,
			Usage: `Event to dispatch after mounting, e.g. "click button:1" or "input input=milk"`,
		},
		&cli.StringFlag{
			Name:  scriptKey,
			Usage: "File with one event per line, dispatched before any --event",
		},
		&cli.BoolFlag{
			Name:  verboseKey,
			Usage: "Log binding diagnostics in development format",
		},
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
