package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/tourney-desk/app"
	authservice "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/config"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/trace/noop"
)

func main() {
	cliApp := &cli.App{
		Name:  "tourney-desk",
		Usage: "tournament check-in and match slip desk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			tokenCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and event consumers",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := app.NewLogger(cfg.Observability)

			application, err := app.NewApp(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Error("Shutdown finished with errors", attr.Error(err))
				}
			}()

			return application.Run(ctx)
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint a desk access token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "actor", Required: true, Usage: "actor id carried in the token"},
			&cli.StringFlag{Name: "role", Value: string(authdomain.RoleStaff), Usage: "player, staff, judge or admin"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, defaults to jwt.default_ttl"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return errors.New("jwt.secret is not configured")
			}

			logger := app.NewLogger(cfg.Observability)
			svc := authservice.NewService(
				authjwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer),
				cfg.JWT.DefaultTTL,
				logger,
				noop.NewTracerProvider().Tracer("cli"),
			)

			token, err := svc.MintToken(context.Background(), c.String("actor"), authdomain.Role(c.String("role")), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
