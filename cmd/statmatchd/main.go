package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"statmatch/internal/config"
	"statmatch/internal/daemonrun"
)

func main() {
	var configPath string
	var logLevel string
	flag.StringVar(&configPath, "config", "", "configuration file path")
	flag.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "statmatchd: %v\n", err)
		os.Exit(1)
	}
}
