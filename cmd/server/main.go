package main

import (
	"log"
	"net/http"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/gorilla/mux"
	"github.com/pchlebda/nn/internal/application/service"
	"github.com/pchlebda/nn/internal/config"
	"github.com/pchlebda/nn/internal/infrastructure/api"
	"github.com/pchlebda/nn/internal/infrastructure/db"
	"github.com/pchlebda/nn/internal/infrastructure/handler"
	"github.com/pchlebda/nn/internal/infrastructure/logger"
	"github.com/pchlebda/nn/internal/infrastructure/middleware"
)

func main() {
	cfg := config.Load()

	appLogger := logger.NewJSONLogger(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	logger.SetDefaultLogger(appLogger)

	appLogger.Info("Starting currency account service", map[string]interface{}{
		"local_currency":   cfg.LocalCurrency,
		"foreign_currency": cfg.ForeignCurrency,
		"nbp_api_url":      cfg.NBPAPIURL,
	})

	// Setup BadgerDB
	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	badgerOpts := badger.DefaultOptions(cfg.DBPath)
	badgerOpts.Logger = nil

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	defer func() {
		if err := badgerDB.Close(); err != nil {
			appLogger.Error("Error closing BadgerDB", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Initialize repositories and clients
	accountRepo := db.NewBadgerAccountRepository(badgerDB)
	nbpClient := api.NewNBPAPIClient(cfg.NBPAPIURL, nil, appLogger)

	// Initialize services and handlers
	accountService := service.NewAccountService(accountRepo, nbpClient, cfg.LocalCurrency, cfg.ForeignCurrency, appLogger)
	accountHandler := handler.NewAccountHandler(accountService, cfg.LocalCurrency, cfg.ForeignCurrency, appLogger)

	// Setup router
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware(appLogger))
	accountHandler.RegisterRoutes(router)

	appLogger.Info("Server listening", map[string]interface{}{
		"addr": cfg.HTTPAddr,
	})
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, router))
}
