package main

import (
	"github.com/jd3nn1s/forzadash/config"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func setupLogging(cfg *config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	log.SetLevel(level)
	if cfg.File != "" {
		log.SetFormatter(&log.JSONFormatter{})
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	}
	return nil
}
