// Command tickdata downloads vendor tick archives and maintains the per-session
// tick files built from them.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

var (
	configPath = "configs/config.yaml"
	envFile    = ".env"
)

func main() {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.StringVar(&configPath, "config", configPath, "Path of the YAML configuration file.")
	flag.StringVar(&envFile, "env", envFile, "Path of an optional .env file.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
