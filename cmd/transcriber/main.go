package main

import (
	"os"

	"github.com/studentsforfg/transcriber/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
