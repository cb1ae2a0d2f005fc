package main

import (
	"fmt"
	"log"
	"os"

	"recorder-server/confs"
	"recorder-server/db"
	"recorder-server/logging"
	"recorder-server/repositories"
	"recorder-server/server"
	"recorder-server/usecases"

	"github.com/urfave/cli/v2"
)

func main() {
	// load config
	if err := confs.LoadConfig(); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	cfg := &confs.Config{}
	app := &cli.App{
		Name:  "recorder-server",
		Usage: "REST service for recording devices, their settings, recordings and speakers",
		Flags: confs.Flags(cfg),
		Action: func(*cli.Context) error {
			return run(cfg)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *confs.Config) error {
	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// connect to database Postgres
	database, err := db.Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnw("closing database", "error", err)
		}
	}()

	gateway := db.NewGateway(database)
	deviceUseCase := usecases.NewDeviceUseCase(
		repositories.NewDevicePgRepository(gateway),
		repositories.NewDeviceSettingsPgRepository(gateway),
		repositories.NewRecordingPgRepository(gateway),
		repositories.NewSpeakerPgRepository(gateway),
	)

	// run server
	return server.NewServer(cfg, deviceUseCase, logger).Start()
}
