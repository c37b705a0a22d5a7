// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func runHealthcheckCLI(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", "localhost:8090", "API host:port to check")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	return checkHealth(os.Stdout, os.Stderr, "http://"+*addr+"/healthz", *timeout)
}

func checkHealth(stdout, stderr io.Writer, url string, timeout time.Duration) int {
	client := http.Client{Timeout: timeout}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(stderr, "Healthcheck failed (network): %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "Healthcheck failed (status): %s\n", resp.Status)
		return 1
	}

	fmt.Fprintln(stdout, "Healthcheck successful")
	return 0
}
