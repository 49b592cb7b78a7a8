package main

import (
	"os"

	"github.com/stemsi/scholardist/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
