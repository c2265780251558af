package main

import (
	"os"

	"github.com/omarqouqas/cashflowforecaster/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
