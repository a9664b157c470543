// Command forumd runs the forum API and offers a few maintenance commands.
//
//	forumd serve              run the HTTP API
//	forumd config             print the effective configuration
//	forumd journal            list recorded write events
//	forumd version
//
// Configuration is loaded from --config (JSON with comments), then .env, then
// FORUM_* environment variables. See the config package.
package main

import (
	"os"
)

// version is stamped at build time:
//
//	go build -ldflags "-X main.version=1.4.0" ./cmd/forumd
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
