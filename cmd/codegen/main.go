package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

const (
	inputKey  = "input"
	outputKey = "output"
	markerKey = "marker"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate typed accessor pairs for reactive struct fields",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     inputKey,
				Usage:    "Go source file declaring the reactive structs",
				Required: true,
			},
			&cli.StringFlag{
				Name:  outputKey,
				Usage: "Output file, defaults to <input>_accessors.go",
			},
			&cli.StringFlag{
				Name:  markerKey,
				Usage: "Doc comment marker selecting the structs to generate for",
				Value: defaultMarker,
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	input := cmd.String(inputKey)
	log.Printf("Codegen for %s started", input)
	defer func() {
		log.Printf("Codegen for %s finished in %v", input, time.Since(start))
	}()

	src, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	contents, err := accessors(filepath.Base(input), src, cmd.String(markerKey))
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	output := cmd.String(outputKey)
	if output == "" {
		output = strings.TrimSuffix(input, ".go") + "_accessors.go"
	}
	if err := os.WriteFile(output, contents, 0644); err != nil {
		return err
	}
	log.Printf("Wrote %s", output)
	return nil
}
