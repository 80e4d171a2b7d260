/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/aethercast/internal/admin"
	"github.com/friendsincode/aethercast/internal/config"
	"github.com/friendsincode/aethercast/internal/geo"
	"github.com/friendsincode/aethercast/internal/library"
	"github.com/friendsincode/aethercast/internal/logbuffer"
	"github.com/friendsincode/aethercast/internal/logging"
	"github.com/friendsincode/aethercast/internal/metrics"
	"github.com/friendsincode/aethercast/internal/queue"
	"github.com/friendsincode/aethercast/internal/registry"
	"github.com/friendsincode/aethercast/internal/server"
	"github.com/friendsincode/aethercast/internal/workerpool"
)

var (
	flagWorkers   int
	flagLibrary   string
	flagAdminBind string
	flagGeoIPDB   string
)

var rootCmd = &cobra.Command{
	Use:   "aethercastd control_port audio_port",
	Short: "Multi-client internet radio broadcaster",
	Args:  cobra.ExactArgs(2),
	RunE:  run,
}

func init() {
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 8, "number of command-handling workers")
	rootCmd.Flags().StringVar(&flagLibrary, "library", "songs", "library root directory")
	rootCmd.Flags().StringVar(&flagAdminBind, "admin-bind", "127.0.0.1:9090", "admin HTTP bind address (empty disables it)")
	rootCmd.Flags().StringVar(&flagGeoIPDB, "geoip-db", "", "optional path to a MaxMind .mmdb file for /status enrichment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	controlPort, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid control_port %q: %w", args[0], err)
	}
	audioPort, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid audio_port %q: %w", args[1], err)
	}

	cfg, err := config.New(controlPort, audioPort, flagWorkers, flagLibrary, flagAdminBind, flagGeoIPDB)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logBuf := logbuffer.New(5000)
	logger := logging.SetupWithWriter("production", logbuffer.NewWriter(logBuf, nil))
	logger.Info().
		Int("control_port", cfg.ControlPort).
		Int("audio_port", cfg.AudioPort).
		Int("workers", cfg.Workers).
		Str("library", cfg.LibraryRoot).
		Msg("aethercast starting")

	lib, err := library.New(cfg.LibraryRoot, logger)
	if err != nil {
		return fmt.Errorf("library init: %w", err)
	}
	if cfg.S3.Enabled {
		mirror, err := library.NewS3Mirror(context.Background(), library.S3MirrorConfig{
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("s3 mirror disabled: failed to initialize")
		} else {
			lib.SetMirror(mirror)
		}
	}

	q := queue.New(lib.Root(), logger)
	reg := registry.New(logger)
	pool := workerpool.New(cfg.Workers, cfg.Workers*4, logger)
	defer pool.Stop()

	m := metrics.New()

	var geoLookup *geo.Lookup
	if cfg.GeoIPPath != "" {
		geoLookup, err = geo.Open(cfg.GeoIPPath)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip disabled: failed to open database")
			geoLookup = nil
		} else {
			defer geoLookup.Close()
		}
	}

	srv := server.New(cfg.ControlPort, cfg.AudioPort, lib, q, reg, pool, m, logger)
	streamer := server.NewStreamer(q, reg, m, logger)

	stop := make(chan struct{})
	serverErrs := make(chan error, 1)
	go func() { serverErrs <- srv.Run(stop) }()
	go streamer.Run(stop)

	var adminHTTP *http.Server
	if cfg.AdminBind != "" {
		adminSrv := admin.New(admin.Deps{
			Library:  lib,
			Queue:    q,
			Registry: reg,
			GeoIP:    geoLookup,
			LogBuf:   logBuf,
		}, logger)
		adminSrv.MarkReady()

		adminLn, err := net.Listen("tcp", cfg.AdminBind)
		if err != nil {
			close(stop)
			return fmt.Errorf("admin bind %s: %w", cfg.AdminBind, err)
		}
		adminHTTP = &http.Server{Addr: cfg.AdminBind, Handler: adminSrv.Handler()}
		go func() {
			logger.Info().Str("addr", cfg.AdminBind).Msg("admin HTTP server listening")
			if err := adminHTTP.Serve(adminLn); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("admin HTTP server error")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErrs:
		if err != nil {
			logger.Error().Err(err).Msg("event multiplexor exited")
			runErr = fmt.Errorf("event multiplexor: %w", err)
		}
	}

	close(stop)
	if adminHTTP != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = adminHTTP.Shutdown(ctx)
	}

	logger.Info().Msg("aethercast stopped")
	return runErr
}
