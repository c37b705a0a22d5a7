// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ManuGH/vidserve/internal/config"
	pnet "github.com/ManuGH/vidserve/internal/platform/net"
	"github.com/ManuGH/vidserve/internal/version"
	"gopkg.in/yaml.v3"
)

func runConfigCLI(args []string) int {
	return configCLI(os.Stdout, os.Stderr, args)
}

func configCLI(stdout, stderr io.Writer, args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(stdout, stderr, args[1:])
	case "dump":
		return runConfigDump(stdout, stderr, args[1:])
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vidserve config validate --file|-f config.yaml")
	fmt.Fprintln(w, "  vidserve config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func runConfigValidate(stdout, stderr io.Writer, args []string) int {
	fs := flag.NewFlagSet("vidserve config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		fmt.Fprintln(stderr, "Error: --file is required")
		return 2
	}

	if _, err := config.NewLoader(configPath, version.Version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Fprintf(stdout, "%s is valid\n", configPath)
	return 0
}

// runConfigDump prints the effective configuration (defaults, file, env).
func runConfigDump(stdout, stderr io.Writer, args []string) int {
	fs := flag.NewFlagSet("vidserve config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file, format string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	cfg, err := config.NewLoader(configPath, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	if cfg.PublicBaseURL != "" {
		cfg.PublicBaseURL = pnet.SanitizeURL(cfg.PublicBaseURL)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}
