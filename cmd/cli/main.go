package main

import (
	"os"

	"github.com/blogdeck/blogdeck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
