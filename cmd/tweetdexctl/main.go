// Package main provides the entry point for the tweetdexctl CLI.
package main

import (
	"os"

	"github.com/kailas-cloud/tweetdex/cmd/tweetdexctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
