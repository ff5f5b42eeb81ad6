package main

import "fmt"

// Overridden at build time with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("spacectl {{.Version}} (commit %s, built %s)\n", commit, date))
}
