package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-storefront/backend"
	"github.com/jrsteele09/go-storefront/credstore"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/jrsteele09/go-storefront/internal/logging"
	"github.com/jrsteele09/go-storefront/proxy"
	"github.com/jrsteele09/go-storefront/server"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env")
	}
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running storefront")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Storefront stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx := context.Background()
	if err := os.MkdirAll(c.GetDataFolder(), 0o700); err != nil {
		return fmt.Errorf("creating data folder: %w", err)
	}
	storage, closeStorage, err := credstore.New(ctx, c)
	if err != nil {
		return fmt.Errorf("opening credential storage: %w", err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Err(err).Msg("Failed to close credential storage")
		}
	}()

	store := sessions.NewStore(backend.New(c.GetBackendURL(), nil, c.GetBackendTimeout()), storage)
	state := store.Hydrate(ctx)
	if state.Authenticated {
		log.Info().Str("user", state.User.Username).Str("role", string(state.User.Role)).Msg("Signed in from stored credentials")
	}

	relay := proxy.New(c.GetProxyTargetURL(), c, c.GetBackendTimeout(), proxy.WithTokenSource(store.AccessToken), proxy.WithoutCorsHeaders())
	srv := &http.Server{Addr: c.GetListenAddr(), Handler: server.New(c, store, relay)}
	go listenAndServe(srv)
	waitForStopSignal()
	return shutdown(srv)
}

func listenAndServe(server *http.Server) {
	log.Info().Msgf("Storefront listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
