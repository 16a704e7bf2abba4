package main

import (
	"os"

	"github.com/katalvlaran/hyperpart/cmd/hyperpart/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
