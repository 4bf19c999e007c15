// Package main provides the tts-synthesize voice-cloning adapter.
//
// Usage:
//
//	tts-synthesize [flags] <text> <voice_sample> <output_path>
//	tts-synthesize [flags] <command> [args]
//
// Commands:
//
//	voices  - list the voices registered on the synthesis backend
//	clone   - register a reusable voice from sample recordings
//	mcp     - serve the synthesis operations as MCP tools over stdio
//	version - print version information
//
// The bare three-argument form is the contract the kentbot AI service
// invokes as a subprocess: exit 0 means the output file exists and is
// non-empty, anything else is exit 1 with a diagnostic on stderr.
package main

import (
	"fmt"
	"os"

	"github.com/HawaiianTea/kentbot-2.0/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
