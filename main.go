package main

import (
	"os"

	"github.com/Seintian/postoffice/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
