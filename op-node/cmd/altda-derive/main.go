package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	opnode "github.com/mantlenetworkio/mantle-altda/op-node"
	"github.com/mantlenetworkio/mantle-altda/op-node/flags"
	"github.com/mantlenetworkio/mantle-altda/op-node/metrics"
	"github.com/mantlenetworkio/mantle-altda/op-node/node"
	oplog "github.com/mantlenetworkio/mantle-altda/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "altda-derive"
	app.Usage = "Read rollup batch data from L1 and Alt-DA layers"
	app.Description = "Extracts the batch data of a range of L1 blocks, resolving Alt-DA commitments " +
		"and EigenDA certificates, and prints one hex encoded item per line."
	app.Flags = flags.Flags
	app.Action = RunDerive
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	if err := app.Run(os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func RunDerive(cliCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCfg, err := oplog.ReadCLIConfig(cliCtx)
	if err != nil {
		return fmt.Errorf("failed to read log config: %w", err)
	}
	// batch data goes to stdout, so logs are kept on stderr
	logger := oplog.NewLogger(cliCtx.App.ErrWriter, logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())

	cfg, err := opnode.NewConfig(cliCtx, logger)
	if err != nil {
		return fmt.Errorf("unable to create the rollup node config: %w", err)
	}
	cfg.Rollup.LogDescription(logger)

	n, err := node.New(ctx, cfg, logger, metrics.NewMetrics(""))
	if err != nil {
		return fmt.Errorf("unable to create the alt-da node: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Stop(stopCtx); err != nil {
			logger.Error("Failed to stop the alt-da node", "err", err)
		}
	}()

	return n.Run(ctx, cliCtx.App.Writer)
}
