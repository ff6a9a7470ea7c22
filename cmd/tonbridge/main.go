package main

import (
	"os"

	"tonbridge/cmd/tonbridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
