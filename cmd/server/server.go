package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/router"
	"github.com/vaishnavucv/droid-proctoring/internal/config"
	"github.com/vaishnavucv/droid-proctoring/internal/media"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the proctoring service",
		Run: func(_ *cobra.Command, _ []string) {
			runServer()
		},
	}
}

func runServer() {
	cfg := config.DefaultServiceConfigFromEnv()

	s, err := api.InitServer(cfg, media.NewPushProvider())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	router.Init(s)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		log.Error().Errs("errors", errs).Msg("Server shutdown completed with errors")
		os.Exit(1)
	}
}
