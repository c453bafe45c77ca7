// Package main is the entry point for the closeness CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/closeness/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
