package main

import (
	"os"

	"github.com/danvoulez/ubl-auth/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
