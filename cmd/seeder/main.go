package main

import (
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/arhyth/atmxgo"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfp := flag.String("config", "config.yml", "path to configuration file")
	envfp := flag.String("env", ".env", "path to optional dotenv file")
	force := flag.Bool("force", false, "overwrite an existing store with the default accounts")
	flag.Parse()

	cfg, err := atmxgo.LoadConfig(*cfp, *envfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config")
	}

	store, closeStore, err := openStore(cfg, *force, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("error opening store")
	}
	defer closeStore()

	seeded, err := seed(store, *force)
	if err != nil {
		logger.Fatal().Err(err).Msg("error seeding default accounts")
	}
	if !seeded {
		logger.Info().Str("driver", cfg.Store.Driver).Msg("store already exists, use -force to overwrite")
		return
	}
	logger.Info().Str("driver", cfg.Store.Driver).Msg("store seeded")
}

// openStore prepares the configured backend. For postgres the schema is
// created, or dropped and recreated when force is set.
func openStore(cfg *atmxgo.Config, force bool, logger *zerolog.Logger) (atmxgo.Store, func(), error) {
	if cfg.Store.Driver != atmxgo.DriverPostgres {
		return atmxgo.NewFileStore(cfg.Store.Path), func() {}, nil
	}

	lh, err := atmxgo.NewLocalHelper(cfg)
	if err != nil {
		return nil, nil, err
	}
	if force {
		err = lh.ResetDB()
	} else {
		_, err = lh.InitDB()
	}
	lh.Close()
	if err != nil {
		return nil, nil, err
	}
	pg, err := atmxgo.NewPostgresStore(cfg.Store.ConnectionString, cfg.Store.Timeout, logger)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// seed writes the default accounts. Without force an existing store,
// readable or not, is left alone: a readable one reports false and an
// unreadable one returns its load error.
func seed(store atmxgo.Store, force bool) (bool, error) {
	if !force {
		_, err := store.Load()
		switch {
		case err == nil:
			return false, nil
		case !errors.Is(err, atmxgo.ErrStoreNotFound):
			return false, err
		}
	}
	if _, err := atmxgo.SeedDefault(store); err != nil {
		return false, err
	}
	return true, nil
}
