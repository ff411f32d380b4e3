package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/daotreasury/backend/internal/config"
	"github.com/daotreasury/backend/internal/explorer"
	"github.com/daotreasury/backend/internal/ingest"
	"github.com/daotreasury/backend/internal/models"
	"github.com/daotreasury/backend/internal/prices"
	"github.com/daotreasury/backend/internal/reports"
	"github.com/daotreasury/backend/internal/router"
	"github.com/daotreasury/backend/internal/safe"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode("release")
	} else {
		gin.SetMode(ginMode)
	}

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	// A .env file is optional, the environment itself wins
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded configuration from .env")
	}

	cnf := config.Load()
	if err := cnf.Validate(); err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Create the data directory for the database
	err := os.MkdirAll(filepath.Dir(cnf.DBPath), os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Connect to the database and seed the configured wallets
	err = models.Connect(cnf.DBPath)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	err = models.SeedWallets(cnf.Wallets)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	if cnf.APIToken == "" {
		log.Warn().Msg("API_TOKEN is not set, write endpoints are unprotected")
	}

	// The pipeline and the reporting engine share one price client so they
	// also share its quote cache
	oracle := prices.NewClient(cnf.PriceURL, cnf.CoinGeckoIDs)

	pipeline := ingest.NewPipeline(
		cnf,
		explorer.NewClient(cnf.ExplorerURL, cnf.ExplorerAPIKey, cnf.ChainID),
		oracle,
		safe.NewClient(cnf.SafeURL),
	)
	engine := reports.NewEngine(cnf, oracle)

	// Ingest periodically and once right away so a fresh deployment does
	// not serve an empty dashboard until the first tick
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cnf.FetchInterval),
		gocron.NewTask(func() {
			// Failures are logged per wallet inside the run
			_, _ = pipeline.IngestAll(context.Background())
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	scheduler.Start()

	defer func() {
		_ = scheduler.Shutdown()
	}()

	r, err := router.Router(cnf, pipeline, engine)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	if err := r.Run(":" + cnf.Port); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
