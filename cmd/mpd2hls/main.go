package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caddyserver/certmagic"

	"github.com/streambridge/mpd2hls/cmd/mpd2hls/app"
	"github.com/streambridge/mpd2hls/pkg/logging"
)

const (
	gracefulShutdownWait = 2 * time.Second
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	cfg, err := app.LoadConfig(os.Args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err.Error())
		os.Exit(1)
	}

	logger, err := logging.InitZerolog(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error setting up logging: %s\n", err.Error())
		os.Exit(1)
	}
	if err := logging.InitSlog(cfg.LogLevel, slogFormat(cfg.LogFormat)); err != nil {
		logger.Fatal().Err(err).Send()
	}

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	startIssue := make(chan struct{}, 1)
	stopServer := make(chan struct{}, 1)

	ctx, cancelBkg := context.WithCancel(context.Background())

	go func() {
		select {
		case <-startIssue:
		case <-stopSignal:
		}
		cancelBkg()
		stopServer <- struct{}{}
	}()

	server, err := app.SetupServer(ctx, cfg)
	if err != nil {
		_, prErr := fmt.Fprintf(os.Stderr, "Error setting up server: %s\n", err.Error())
		if prErr != nil {
			fmt.Print(prErr)
		}
		return 1
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Router,
	}

	go func() {
		var err error
		switch {
		case cfg.Domains != "": // Automatic HTTPS with Let's Encrypt
			err = certmagic.HTTPS(strings.Split(cfg.Domains, ","), server.Router)
		case cfg.CertPath != "" && cfg.KeyPath != "": // HTTPS
			err = srv.ListenAndServeTLS(cfg.CertPath, cfg.KeyPath)
		default:
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("")
			exitCode = 1
			startIssue <- struct{}{}
		}
	}()

	<-stopServer // Wait here for stop signal
	logger.Info().Msg("Server to be stopped")

	timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer func() {
		logger.Info().Msg("Server stopped")
		cancelTimeout()
		time.Sleep(gracefulShutdownWait)
	}()

	if err := srv.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	return exitCode
}

// slogFormat maps the access-log format to the closest slog handler format.
func slogFormat(zerologFormat string) string {
	switch zerologFormat {
	case logging.LogConsolePretty:
		return logging.LogPretty
	case logging.LogJSON:
		return logging.LogJSON
	case logging.LogDiscard:
		return logging.LogDiscard
	default:
		return logging.LogText
	}
}
