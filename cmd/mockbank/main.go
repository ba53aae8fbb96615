package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	jwttoken "digibank/internal/jwt_token"
	"digibank/internal/mockbank"
	"digibank/internal/platform/config"
	"digibank/internal/platform/httpserver"
	"digibank/internal/platform/logger"
)

// main serves the in-memory banking backend for local development.
func main() {
	fs := pflag.NewFlagSet("mockbank", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.String("mockbank-addr", "", "listen address")
	fs.Int64("opening-balance-cents", 0, "balance credited to every new account")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	bank := mockbank.NewBank(mockbank.WithOpeningBalance(cfg.OpeningBalanceCents))
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "mockbank", jwttoken.DefaultExpiry)
	handler := mockbank.NewHandler(bank, tokens,
		mockbank.WithLogger(log),
		mockbank.WithMetrics(mockbank.NewMetrics(reg)),
	)
	router := mockbank.NewRouter(handler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := httpserver.New(cfg.MockbankAddr, router)

	log.Info("starting mockbank", "addr", cfg.MockbankAddr)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
