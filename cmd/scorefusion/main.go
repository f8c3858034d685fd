// Package main provides the entry point for the scorefusion CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/scorefusion/cmd/scorefusion/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
