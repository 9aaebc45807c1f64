package main

import (
	"os"

	"github.com/technologic-ai/technologic/internal/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
