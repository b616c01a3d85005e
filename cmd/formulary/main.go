package main

import (
	"os"

	"github.com/quarterbit/formulary/cmd/formulary/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
