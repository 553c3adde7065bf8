package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cmd/flags"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/httpserver"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/registry"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/storage"
)

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve the FidesInnova IoT registry API",
		Flags: append(append([]cli.Flag{}, flags.ServerFlags...), flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			owner, err := interfaces.NewAddressFromHex(cCtx.String(flags.OwnerFlag.Name))
			if err != nil {
				logger.Error("Invalid owner address", "err", err)
				return err
			}

			locations := []interfaces.StorageLocation{}
			for _, uri := range cCtx.StringSlice(flags.StorageFlag.Name) {
				locations = append(locations, interfaces.StorageLocation(uri))
			}

			storageFactory := storage.NewFactory(logger)
			artifactStorage, err := storageFactory.CreateMultiBackend(locations)
			if err != nil {
				logger.Error("Failed to set up artifact storage", "err", err)
				return err
			}

			ledger := registry.New(owner, logger)

			if snapshotPath := cCtx.String(flags.RestoreSnapshotFlag.Name); snapshotPath != "" {
				data, err := os.ReadFile(snapshotPath)
				if err != nil {
					logger.Error("Failed to read snapshot file", "path", snapshotPath, "err", err)
					return err
				}
				if err := ledger.Restore(owner, data); err != nil {
					logger.Error("Failed to restore snapshot", "path", snapshotPath, "err", err)
					return err
				}
				logger.Info("Restored ledgers from snapshot", "path", snapshotPath)
			}

			sigMaxAge := time.Duration(cCtx.Int64(flags.SignatureMaxAgeFlag.Name)) * time.Second
			handler := httpserver.NewHandler(ledger, artifactStorage, logger, sigMaxAge)

			cfg := flags.ConfigureServer(cCtx, logger)
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting registry server",
				"owner", owner.String(),
				"storage", artifactStorage.LocationURI(),
			)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
