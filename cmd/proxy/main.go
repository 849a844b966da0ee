// Command proxy serves only the /api relay, for deployments where the UI is hosted elsewhere.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/jrsteele09/go-storefront/internal/logging"
	"github.com/jrsteele09/go-storefront/proxy"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env")
	}
	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel())

	figure.NewFigure(c.GetAppName()+" relay", "cybermedium", true).Print()
	fmt.Println()

	mux := http.NewServeMux()
	mux.Handle(proxy.DefaultPrefix, proxy.New(c.GetProxyTargetURL(), c, c.GetBackendTimeout()))
	srv := &http.Server{Addr: c.GetListenAddr(), Handler: mux}

	go func() {
		log.Info().Str("target", c.GetProxyTargetURL()).Msgf("Relay listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server.ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Err(err).Msg("server.Shutdown")
	}
	log.Info().Msg("Relay stopped")
}
