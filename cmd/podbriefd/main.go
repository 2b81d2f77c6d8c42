// Command podbriefd runs the podbrief daemon in the foreground. It exists for
// process supervisors such as systemd; interactive use goes through the
// podbrief CLI, which launches the same daemon loop on demand.
package main

import (
	"context"
	"flag"
	"log"

	"podbrief/internal/config"
	"podbrief/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
