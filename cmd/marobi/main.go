package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nippysky/marobi/config"
	"github.com/nippysky/marobi/internal/adminapi"
	"github.com/nippysky/marobi/internal/app"
	"github.com/nippysky/marobi/internal/storeapi"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cliApp := &cli.App{
		Name:  "marobi",
		Usage: "Marobi storefront and back-office server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "marobi.yml",
				Usage:   "config file path",
				EnvVars: []string{"MAROBI_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the web server and background jobs",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update database tables, then seed defaults",
				Action: migrate,
			},
			{
				Name:  "initdb",
				Usage: "drop and recreate all tables (destroys data)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "confirm dropping existing data"},
				},
				Action: initdb,
			},
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg := config.MustLoad(c.String("config"))
	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		return err
	}
	defer application.Release()

	adminapi.Init()
	storeapi.Init()
	server := webserver.New(application)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	err := g.Wait()
	zap.L().Info("marobi stopped", zap.String("namespace", "main"))
	return err
}

func migrate(c *cli.Context) error {
	cfg := config.MustLoad(c.String("config"))
	application := app.NewApplication(cfg)
	if err := application.Connect(cfg); err != nil {
		return err
	}
	defer application.Release()
	if err := application.MigrateDB(true); err != nil {
		return err
	}
	application.Seed()
	return nil
}

func initdb(c *cli.Context) error {
	if !c.Bool("yes") {
		return cli.Exit("initdb drops every table, rerun with --yes to continue", 2)
	}
	cfg := config.MustLoad(c.String("config"))
	application := app.NewApplication(cfg)
	if err := application.Connect(cfg); err != nil {
		return err
	}
	defer application.Release()
	application.InitDb()
	return nil
}
