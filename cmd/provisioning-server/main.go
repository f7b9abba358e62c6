package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/insightops/odag-provisioning-backend/cmd/flags"
	"github.com/insightops/odag-provisioning-backend/engine"
	"github.com/insightops/odag-provisioning-backend/httpserver"
	"github.com/insightops/odag-provisioning-backend/identity"
	"github.com/insightops/odag-provisioning-backend/provisioner"
	"github.com/insightops/odag-provisioning-backend/resourceapi"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var listenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var serverFlags = append(append([]cli.Flag{listenAddrFlag}, flags.PlatformFlags...), flags.CommonFlags...)

func main() {
	// An optional .env next to the binary seeds the ODAG_* variables the
	// platform flags read through EnvVars.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "provisioning-server",
		Usage: "Serve the ODAG link provisioning API",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(listenAddrFlag.Name)
			logger := flags.SetupLogger(cCtx)

			platformCfg := flags.PlatformConfig(cCtx)
			if err := platformCfg.Validate(); err != nil {
				logger.Error("Invalid platform configuration", "err", err)
				return err
			}

			creds, err := identity.New(platformCfg)
			if err != nil {
				logger.Error("Failed to load platform identity", "err", err)
				return err
			}

			orchestrator := provisioner.New(
				resourceapi.NewClient(platformCfg, creds, logger),
				engine.NewDriver(platformCfg, creds, logger),
				logger,
			)

			handler := httpserver.NewHandler(orchestrator, logger)
			srv, err := httpserver.New(flags.ConfigureServer(cCtx, logger, listenAddr), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "host", platformCfg.Host)
			srv.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			srv.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
