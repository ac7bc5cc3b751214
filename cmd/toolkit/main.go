// Command toolkit browses the teacher toolkit directory from a terminal,
// sharing the preference store with the MCP server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
