package config

import (
	"fmt"

	"github.com/quillarb/mongo-userstore/pkg/logger"
)

// Initialize loads configuration and sets up the global logger.
func Initialize() (*Config, *logger.Logger, error) {
	cfg, err := Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		Encoding:    cfg.Log.Encoding,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.SetGlobalLogger(log)

	log.WithFields(map[string]interface{}{
		"mongo_database":   cfg.Mongo.Database,
		"mongo_collection": cfg.Mongo.Collection,
		"enable_indexes":   cfg.Mongo.EnableIndexes,
		"log_level":        cfg.Log.Level,
	}).Info("Configuration and logger initialized")

	return cfg, log, nil
}

// MustInitialize is like Initialize but panics on error.
func MustInitialize() (*Config, *logger.Logger) {
	cfg, log, err := Initialize()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize: %v", err))
	}
	return cfg, log
}
