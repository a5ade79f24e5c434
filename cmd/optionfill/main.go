package main

import (
	"fmt"
	"os"
	"strings"

	"optionfill/internal/cli"
	"optionfill/internal/config"
	"optionfill/internal/logging"
)

// configDirFromArgs pre-scans the arguments for --config so configuration
// is loaded before cobra parses flags. Both "--config dir" and
// "--config=dir" are accepted, matching what cobra itself parses later.
func configDirFromArgs(args []string) string {
	dir := ""
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			dir = args[i+1]
		case strings.HasPrefix(arg, "--config="):
			dir = strings.TrimPrefix(arg, "--config=")
		}
	}
	return dir
}

func main() {
	cfg, err := config.Load(configDirFromArgs(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
