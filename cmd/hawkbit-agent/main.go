// Command hawkbit-agent polls a hawkBit Direct Device Integration server
// for deployments, downloads and verifies the offered artifact, and hands
// it to an external installer command.
//
// Usage:
//
//	hawkbit-agent [-run-once] [config-file]
//
// The default config file path is /etc/hawkbit-agent/config.yml.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gurre/hawkbit-agent-go/entrypoint/agent"
)

const defaultConfigPath = "/etc/hawkbit-agent/config.yml"

func main() {
	runOnce := flag.Bool("run-once", false, "perform a single base poll and exit (0 on success, 1 on failure)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hawkbit-agent [-run-once] [config-file]\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	configPath := defaultConfigPath
	if flag.NArg() > 0 {
		configPath = flag.Arg(0)
	}

	os.Exit(agent.Run(context.Background(), configPath, *runOnce))
}
