package main

import (
	"bufio"
	"errors"
	"flag"
	"io"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/arhyth/atmxgo"
)

func main() {
	cfp := flag.String("config", "config.yml", "path to configuration file")
	envfp := flag.String("env", ".env", "path to optional dotenv file")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := atmxgo.LoadConfig(*cfp, *envfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config")
	}
	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(lvl)

	store, closeStore, err := openStore(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("error opening store")
	}
	defer closeStore()

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		logger.Fatal().Err(err).Int64("node_id", cfg.NodeID).Msg("error creating ID node")
	}

	bank, err := atmxgo.NewBank(store, &logger,
		atmxgo.WithNode(node),
		atmxgo.WithPINPolicy(cfg.PINPolicy()),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting bank")
	}

	term := newTerminal(bank, bufio.NewReader(os.Stdin), os.Stdout, cfg)
	if err = term.Run(); err != nil && !errors.Is(err, io.EOF) {
		logger.Fatal().Err(err).Msg("terminal stopped")
	}
}

// openStore builds the configured backend wrapped in logging and a
// circuit breaker.
func openStore(cfg *atmxgo.Config, logger *zerolog.Logger) (atmxgo.Store, func(), error) {
	var (
		store     atmxgo.Store
		closeFunc = func() {}
	)
	switch cfg.Store.Driver {
	case atmxgo.DriverPostgres:
		pg, err := atmxgo.NewPostgresStore(cfg.Store.ConnectionString, cfg.Store.Timeout, logger)
		if err != nil {
			return nil, nil, err
		}
		store, closeFunc = pg, pg.Close
	default:
		store = atmxgo.NewFileStore(cfg.Store.Path)
	}

	store = atmxgo.Chain(store,
		atmxgo.NewLoggingMiddleware(logger),
		atmxgo.NewBreakerMiddleware(atmxgo.BreakerSettings{
			MaxFailures: cfg.Breaker.MaxFailures,
			Timeout:     cfg.Breaker.Timeout,
			Log:         logger,
		}),
	)
	return store, closeFunc, nil
}
