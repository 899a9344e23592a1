// Command gitkit is a thin plumbing-only CLI over the gitkit libraries,
// in the style of go-git's own cli/go-git command tree: one subcommand per
// provided interface operation, no porcelain (branch, rebase, status).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gitkit:", err)
		os.Exit(1)
	}
}
