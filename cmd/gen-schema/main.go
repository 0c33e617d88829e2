// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema writes the configuration and rules JSON Schema files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/holomush/holotrack/internal/config"
)

type target struct {
	name string
	gen  func() ([]byte, error)
}

var targets = []target{
	{name: "holotrack.schema.json", gen: config.GenerateSchema},
	{name: "holotrack-rules.schema.json", gen: config.GenerateRulesSchema},
}

func main() {
	dir := flag.String("out", "schemas", "output directory")
	flag.Parse()

	if err := run(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	for _, t := range targets {
		schema, err := t.gen()
		if err != nil {
			return fmt.Errorf("generating %s: %w", t.name, err)
		}
		outPath := filepath.Join(dir, t.name)
		if err := os.WriteFile(outPath, schema, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Printf("Generated %s\n", outPath)
	}
	return nil
}
