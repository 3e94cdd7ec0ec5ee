package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/labelworks/labelsrv/internal/common/logtrace"
	"github.com/labelworks/labelsrv/internal/labelsrv/config"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/postgresql"
	"github.com/labelworks/labelsrv/internal/labelsrv/export"
	"github.com/labelworks/labelsrv/internal/labelsrv/server"
)

const DefaultConfigFile = "/etc/labelsrv/labelsrv.conf"

func init() {
	logtrace.InitLogger()
}

type cmdoptions struct {
	configFile *string
}

func main() {
	slog := log.With().Str("state", "init").Logger()
	opt := parseFlags()

	slog.Info().Str("config_file", *opt.configFile).Msg("loading config file")
	if err := config.LoadConfig(*opt.configFile); err != nil {
		slog.Error().Str("config_file", *opt.configFile).Err(err).Msg("unable to load config file")
		os.Exit(1)
	}
	if config.Config().ServerPort == "" {
		slog.Error().Msg("server port not defined")
		os.Exit(1)
	}
	if config.Config().CatalogDsn == "" {
		slog.Error().Msg("catalog dsn not defined")
		os.Exit(1)
	}

	store, err := postgresql.New(config.Config().CatalogDsn)
	if err != nil {
		slog.Error().Err(err).Msg("unable to connect to database")
		os.Exit(1)
	}
	defer store.Close()

	s, err := server.CreateNewServer(store)
	if err != nil {
		slog.Error().Err(err).Msg("unable to create server")
		os.Exit(1)
	}
	s.MountHandlers()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := export.NewSweeper(s.Exports(), config.Config().SweepIntervalDuration())
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + config.Config().ServerPort,
		Handler: s.Router,
	}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	slog.Info().Str("port", config.Config().ServerPort).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	opt.configFile = flag.String("config", DefaultConfigFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
