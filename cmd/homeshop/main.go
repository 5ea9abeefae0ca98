package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeshop/internal/config"
	"homeshop/internal/http/handlers"
	applog "homeshop/internal/log"
	"homeshop/internal/mail"
	"homeshop/internal/repos"
	"homeshop/internal/server"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
			log.SetOutput(out)
		}
	}
	lg, err := applog.New(out, cfg.LogLevel)
	if err != nil {
		log.Fatalf("log level %q: %v", cfg.LogLevel, err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	store := repos.NewStore(db)

	var sender mail.Sender = &mail.LogSender{Log: lg}
	if cfg.SMTPHost != "" {
		sender = &mail.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	}
	mailer := mail.NewDispatcher(sender, lg, cfg.MailWorkers, cfg.MailQueue)

	deps := handlers.NewDeps(store, cfg, mailer, lg)
	app := server.NewApp(cfg, deps, server.Options{AccessLog: out})

	log.Printf("[static] /static -> %s", cfg.StaticDir)
	log.Printf("[static] /media  -> %s", cfg.MediaDir)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[shutdown] draining requests and mail")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("[shutdown] http: %v", err)
	}
	if err := mailer.Close(ctx); err != nil {
		log.Printf("[shutdown] mail: %v", err)
	}
}
