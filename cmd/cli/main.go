// Package main is the entry point for the trinogate CLI binary.
package main

import (
	"os"

	cli "trinogate/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
