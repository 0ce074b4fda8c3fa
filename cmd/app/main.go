// entry point to app :)
package main

import (
	"github.com/ds124wfegd/innonet-bff/config"
	"github.com/ds124wfegd/innonet-bff/internal/appServer"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"version": cfg.Server.AppVersion,
		"backend": cfg.Backend.BaseURL,
		"events":  cfg.Events.Driver,
	}).Info("Configuration loaded")
	appServer.NewServer(cfg)
}
