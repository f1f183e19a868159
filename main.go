package main

import (
	"os"

	"github.com/fbflash/fbflash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
