// Package main is the entry point for the orderflowctl operator CLI.
package main

import (
	"os"

	"github.com/imrishuroy/go-orderflow-notifications/cmd/orderflowctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
