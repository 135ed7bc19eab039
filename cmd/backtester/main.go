package main

import (
	"context"
	"fmt"
	"os"

	"github.com/quantreplay/backtester/log"
	"github.com/quantreplay/backtester/signaler"
	"github.com/urfave/cli/v2"
)

var (
	configPath string
	envFile    string
)

func main() {
	app := cli.NewApp()
	app.Name = "backtester"
	app.Usage = "replay trading strategies over historical crypto market data"
	app.EnableBashCompletion = true
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "a .env file of BACKTESTER_* overrides, a .env in the working directory is used when unset",
			TakesFile:   true,
			Destination: &envFile,
		},
	}
	app.Commands = []*cli.Command{
		runCommand,
		sweepCommand,
		listStrategiesCommand,
		exampleConfigCommand,
		seedCandlesCommand,
		listRunsCommand,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-signaler.WaitForInterrupt()
		cancel()
		fmt.Println("backtester interrupted")
		os.Exit(1)
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Errorln(log.Global, err)
		os.Exit(1)
	}
}
