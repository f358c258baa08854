// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/souk/api"
	"github.com/blinklabs-io/souk/chainquery"
	"github.com/blinklabs-io/souk/internal/config"
	"github.com/blinklabs-io/souk/marketplace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func serveRun(_ *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun()

	if err := cfg.Validate(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	if err := runServer(cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func runServer(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if cfg.Tracing {
		shutdownTracing, err := setupTracing(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error(
					"failed to shutdown tracing",
					"error", err,
				)
			}
		}()
	}

	queryTimeout, err := time.ParseDuration(cfg.QueryTimeout)
	if err != nil {
		return err
	}
	shutdownTimeout, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil {
		return err
	}

	promRegistry := prometheus.NewRegistry()
	client := chainquery.NewBlockfrostClient(
		chainquery.BlockfrostConfig{
			BaseURL:   cfg.BlockfrostURL,
			ProjectID: cfg.BlockfrostProjectID,
			Timeout:   queryTimeout,
		},
		logger,
	)
	market := marketplace.NewMarket(marketplace.MarketConfig{
		Client:          client,
		Logger:          logger,
		PromRegistry:    promRegistry,
		ListingPolicyID: cfg.ListingPolicyID,
		BidPolicyID:     cfg.BidPolicyID,
		ListingAddress:  cfg.ListingAddress,
		BidAddress:      cfg.BidAddress,
	})
	apiServer := api.New(
		api.ApiConfig{
			ListenAddress: cfg.ApiListenAddress,
			PromRegistry:  promRegistry,
		},
		market,
		logger,
	)
	if err := apiServer.Start(ctx); err != nil {
		return err
	}

	// Wait for interrupt
	<-ctx.Done()
	logger.Info(
		"shutting down",
		"component", programName,
	)
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	return apiServer.Stop(shutdownCtx)
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the marketplace API server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			serveRun(cmd, args, cfg)
		},
	}
	return cmd
}
