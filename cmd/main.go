// Package main runs the pet-ledger API server.
package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	if config.Environement != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	var server *httpserver.Server

	switch config.DBDriver {
	case configpkg.DriverMemory:
		logger.Warn().Msg("using in-memory storage, data is lost on exit")

		server, err = httpserver.New(nil, httpserver.MemoryRepos(), logger, config)
	default:
		db, dbErr := dbpkg.Setup(config.DBDriver, config.DBSource)
		if dbErr != nil {
			logger.Fatal().Err(dbErr).Msg("cannot connect to database")
		}

		server, err = httpserver.New(db, httpserver.PostgresRepos(db, config), logger, config)
	}

	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	logger.Info().Str("address", config.ServerAddress).Str("driver", config.DBDriver).Msg("ledger api server has started")

	if err := server.Engine.Run(config.ServerAddress); err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
