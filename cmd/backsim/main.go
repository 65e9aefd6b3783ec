package main

import (
	"os"

	"github.com/quantrail/backsim/cmd/backsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
