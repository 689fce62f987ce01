package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/cribfeed/internal/client/cli"
	"github.com/dmitrijs2005/cribfeed/internal/client/client"
	"github.com/dmitrijs2005/cribfeed/internal/client/config"
	"github.com/dmitrijs2005/cribfeed/internal/logging"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	// stdout belongs to the REPL
	logger, err := logging.NewTo(os.Stderr, cfg.LogBackend, cfg.Debug)
	if err != nil {
		log.Fatalf("%v", err)
	}

	c, err := client.New(ctx, cfg, os.Stdout, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer c.Close()

	cli.NewApp(c, os.Stdin, os.Stdout).Run(ctx)

}
