package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/insightops/odag-provisioning-backend/cmd/flags"
	"github.com/insightops/odag-provisioning-backend/engine"
	"github.com/insightops/odag-provisioning-backend/identity"
	"github.com/insightops/odag-provisioning-backend/interfaces"
	"github.com/insightops/odag-provisioning-backend/provisioner"
	"github.com/insightops/odag-provisioning-backend/resourceapi"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var flagLinkName = &cli.StringFlag{
	Name:     "link-name",
	Required: true,
	Usage:    "display name of the ODAG link",
}

var flagSelectionApp = &cli.StringFlag{
	Name:     "selection-app",
	Required: true,
	Usage:    "id of the selection application receiving the navigation link",
}

var flagTemplateApp = &cli.StringFlag{
	Name:     "template-app",
	Required: true,
	Usage:    "id of the template application cloned on generation",
}

var flagRowEstExpr = &cli.StringFlag{
	Name:     "row-est-expr",
	Required: true,
	Usage:    "row estimation expression evaluated against the selection state",
}

var flagRowEstLow = &cli.IntFlag{
	Name:  "row-est-low",
	Usage: "inclusive lower bound of the row estimation range",
}

var flagRowEstHigh = &cli.IntFlag{
	Name:  "row-est-high",
	Usage: "inclusive upper bound of the row estimation range",
}

var flagRetention = &cli.IntFlag{
	Name:  "retention-minutes",
	Usage: "minutes generated applications are retained",
}

var flagNameFormat = &cli.StringFlag{
	Name:  "gen-app-name-format",
	Usage: "naming template for generated applications, supports %u and %t",
}

var flagDescription = &cli.StringFlag{
	Name:  "description",
	Usage: "description attached to the link",
}

func buildOrchestrator(cCtx *cli.Context) (*provisioner.Provisioner, error) {
	logger := flags.SetupLogger(cCtx)

	cfg := flags.PlatformConfig(cCtx)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := identity.New(cfg)
	if err != nil {
		return nil, err
	}

	return provisioner.New(
		resourceapi.NewClient(cfg, creds, logger),
		engine.NewDriver(cfg, creds, logger),
		logger,
	), nil
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "linkctl",
		Usage: "Provision ODAG links from the command line",
		Flags: append(append([]cli.Flag{}, flags.PlatformFlags...), flags.CommonFlags...),
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Provision one link and register its navigation object",
				Flags: []cli.Flag{
					flagLinkName,
					flagSelectionApp,
					flagTemplateApp,
					flagRowEstExpr,
					flagRowEstLow,
					flagRowEstHigh,
					flagRetention,
					flagNameFormat,
					flagDescription,
				},
				Action: func(cCtx *cli.Context) error {
					orchestrator, err := buildOrchestrator(cCtx)
					if err != nil {
						return err
					}

					outcome := orchestrator.Provision(cCtx.Context, interfaces.LinkRequest{
						LinkName:                cCtx.String(flagLinkName.Name),
						SelectionAppID:          interfaces.AppID(cCtx.String(flagSelectionApp.Name)),
						TemplateAppID:           interfaces.AppID(cCtx.String(flagTemplateApp.Name)),
						RowEstimationExpression: cCtx.String(flagRowEstExpr.Name),
						RowEstLowBound:          cCtx.Int(flagRowEstLow.Name),
						RowEstHighBound:         cCtx.Int(flagRowEstHigh.Name),
						RetentionMinutes:        cCtx.Int(flagRetention.Name),
						GeneratedAppNameFormat:  cCtx.String(flagNameFormat.Name),
						Description:             cCtx.String(flagDescription.Name),
					})

					if err := printJSON(outcome); err != nil {
						return err
					}

					switch outcome.Status {
					case interfaces.StatusPartial:
						fmt.Fprintln(os.Stderr, "warning: link created but navigation registration failed, follow the remediation steps above")
					case interfaces.StatusFailed:
						return cli.Exit("provisioning failed", 1)
					}
					return nil
				},
			},
			{
				Name:  "test-connection",
				Usage: "Probe resource API, link service and engine reachability",
				Action: func(cCtx *cli.Context) error {
					orchestrator, err := buildOrchestrator(cCtx)
					if err != nil {
						return err
					}

					report := orchestrator.TestConnection(cCtx.Context)
					if err := printJSON(report); err != nil {
						return err
					}

					if !report.ResourceAPI.Reachable || !report.LinkService.Reachable || !report.Engine.Reachable {
						return cli.Exit("one or more subsystems unreachable", 1)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
