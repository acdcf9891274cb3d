package main

import (
	"os"

	"github.com/cryptokiosk/kiosk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
