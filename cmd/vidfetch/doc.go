// Package main hosts the vidfetch CLI entrypoint and command graph.
//
// The serve command runs the HTTP service. The info, download and status
// commands drive the same extractor and dispatcher from a terminal, which is
// the quickest way to check a backend without a browser. Configuration
// resolution and logger setup live in the command context so subcommands only
// deal with their own flags.
package main
