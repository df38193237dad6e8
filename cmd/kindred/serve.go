package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/talgya/kindred/internal/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation continuously with the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.API.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		db, err := openDB(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		sim, err := newSimulation(cfg)
		if err != nil {
			return err
		}
		sim.OnYearEnd = db.Archive

		eng := yearly(sim)
		eng.Interval = cfg.Sim.Interval

		if cfg.API.AdminKey == "" {
			slog.Warn("api.admin_key not set; admin POST endpoints will be disabled")
		}
		gin.SetMode(gin.ReleaseMode)
		server := &api.Server{
			Community: sim.Community,
			Sim:       sim,
			Eng:       eng,
			DB:        db,
			Port:      port,
			AdminKey:  cfg.API.AdminKey,
		}
		if cfg.API.RateLimit > 0 {
			server.Limiter = api.NewRateLimiter(cfg.API.RateLimit, time.Minute)
		}
		server.Start()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			slog.Info("received signal, shutting down", "signal", sig)
			eng.Stop()
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Kindred is alive: %d souls.\n", sim.Stats.Population)
		fmt.Fprintf(cmd.OutOrStdout(), "API: http://localhost:%d/api/v1/status\n", port)

		runErr := eng.Run()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("HTTP API shutdown failed", "error", err)
		}

		slog.Info("final save...")
		if err := db.SaveCensus(sim.Community.Snapshot()); err != nil {
			slog.Error("final save failed", "error", err)
		}
		return runErr
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default from config)")
}
