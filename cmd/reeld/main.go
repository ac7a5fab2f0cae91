// Command reeld runs the reel daemon in the foreground without the CLI
// wrapper. It is equivalent to `reel daemon run` and exists for service
// managers that want a dedicated daemon binary.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"reel/internal/config"
	"reel/internal/daemonrun"
)

func main() {
	configPath := os.Getenv("REEL_CONFIG")
	cfg, _, _, err := config.Load(strings.TrimSpace(configPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel: cfg.Logging.Level,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
