// ABOUTME: Entry point for the outreach CLI, MCP server and web API
// ABOUTME: Hands os.Args to the cobra command tree
package main

import (
	"fmt"
	"os"

	"github.com/harperreed/outreach/cli"
)

const version = "0.2.0"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
