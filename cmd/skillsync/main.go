package main

import (
	"os"

	"github.com/a14a-org/claudeskill-manager/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
