package main

import (
	"os"

	"github.com/kwalczyk/rotor/cmd/rotor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
