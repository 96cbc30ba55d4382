package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/ledgerline/ledgerauth"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run() error {
	cfg, err := ledgerauth.LoadConfig()
	if err != nil {
		return err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DatabaseURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	ctx := context.Background()
	if err := ledgerauth.CreateSchema(ctx, db); err != nil {
		return err
	}

	repo := ledgerauth.NewRepositoryManager(db)
	tokens := cfg.TokenService()

	mailer := ledgerauth.NewSMTPMailer(cfg.Mail, cfg.BaseURL)

	auth := ledgerauth.NewAuthService(repo, tokens).
		WithMailer(mailer)

	app := fiber.New(fiber.Config{
		AppName: "ledgerauth",
	})

	controller := ledgerauth.NewAuthController(auth, tokens, repo)
	controller.RegisterRoutes(app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Address)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Println("shutting down")
		return app.Shutdown()
	}
}
