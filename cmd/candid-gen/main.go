package main

import (
	"os"

	"github.com/jakoblorz/candid-gen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
