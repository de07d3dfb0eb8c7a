// Package main provides the entry point for the vendorlens CLI tool.
package main

import (
	"github.com/audiencekit/vendorlens/cmd/vendorlens/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cmd.Execute(version, commit, date, builtBy)
}
