// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/preconsensus/config"
	"github.com/ava-labs/preconsensus/simulator"
	"github.com/ava-labs/preconsensus/utils/logging"
)

var errSimulationPanicked = errors.New("simulation panicked")

func init() {
	cobra.EnablePrefixMatching = true
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "avasim failed: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	c := &cobra.Command{
		Use:          "avasim",
		Short:        "Simulates avalanche polls between staked peers",
		SilenceUsage: true,
		RunE:         runFunc,
	}
	config.AddFlags(c.Flags())
	return c
}

func runFunc(c *cobra.Command, _ []string) error {
	v, err := config.GetViper(c.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.GetConfig(v)
	if err != nil {
		return err
	}

	logFactory := logging.NewFactory(cfg.Logging)
	defer logFactory.Close()

	log, err := logFactory.Make("avasim")
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	network, err := simulator.NewNetwork(log, cfg.Simulator, registry)
	if err != nil {
		return err
	}

	var result *simulator.Result
	log.RecoverAndExit(
		func() {
			result, err = network.Run(c.Context())
		},
		func() {
			err = errSimulationPanicked
		},
	)
	if err != nil {
		return err
	}

	log.Info("simulation result",
		zap.Int("rounds", result.Rounds),
		zap.Int("finalized", result.Finalized),
		zap.Int("invalidated", result.Invalidated),
		zap.Int("mismatches", result.Mismatches),
	)
	if result.Pending > 0 {
		return fmt.Errorf("%d items still pending after %d rounds", result.Pending, result.Rounds)
	}
	return nil
}
