package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/pivolan/sales_analyzer/config"
	"github.com/pivolan/sales_analyzer/logger"
	"github.com/pivolan/sales_analyzer/session"
)

func main() {
	var opts cliOptions
	flag.StringVar(&opts.file, "file", "", "print the report of a csv/xlsx file and exit")
	flag.StringVar(&opts.from, "from", "", "start date, YYYY-MM-DD")
	flag.StringVar(&opts.to, "to", "", "end date, YYYY-MM-DD")
	flag.StringVar(&opts.schema.DateField, "date", "", "date column")
	flag.StringVar(&opts.schema.ValueField, "value", "", "value column")
	flag.StringVar(&opts.schema.ProductField, "product", "", "product column")
	flag.StringVar(&opts.schema.CategoryField, "category", "", "category column")
	flag.Parse()

	cfg := config.GetConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()

	if opts.file != "" {
		if err := runReport(os.Stdout, opts, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	log := logger.New(level)
	logger.SetDefault(log)
	if err := serve(log, cfg); err != nil {
		log.Error("Server error", "error", err, "addr", cfg.HTTPAddr)
		os.Exit(1)
	}
}

func serve(log *logger.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	store := session.NewStore(cfg.SessionTTL)
	go store.Run(ctx, time.Minute)

	var notifier uploadNotifier
	if cfg.TgToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.TgToken)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		log.Info("Authorized on telegram", "account", api.Self.UserName)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates, err := api.GetUpdatesChan(u)
		if err != nil {
			return fmt.Errorf("telegram updates: %w", err)
		}
		bot := newTelegramBot(api, store, cfg, log)
		go bot.Run(ctx, updates)
		defer api.StopReceivingUpdates()
		notifier = bot
	} else {
		log.Info("TG_TOKEN not set, telegram bot disabled")
	}

	ws, err := newWebServer(cfg, store, log, notifier)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           ws.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting sales dashboard", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped gracefully")
	return nil
}
