package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SignalDesk/internal/app"
	"SignalDesk/internal/config"
	"SignalDesk/internal/notifier"
	"SignalDesk/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SignalDesk bot starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	a, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("[FATAL] build pipeline: %v", err)
	}
	defer a.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, a.Analyzer, tn, cfg.Symbols, cfg.CooldownInterval())
	if a.Journal != nil {
		sched.History = a.Journal
	}
	if cfg.Schedule.AnalyzeCron != "" {
		if err := sched.RegisterAnalyze(cfg.Schedule.AnalyzeCron); err != nil {
			log.Fatalf("[FATAL] register cron tasks: %v", err)
		}
		log.Printf("[INFO] scheduled analyze: %s", cfg.Schedule.AnalyzeCron)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" && len(cfg.Symbols) > 0 {
		log.Println("[INFO] RUN_ON_START enabled, analyzing default symbol now")
		go func() {
			if err := tn.SendWithRetry(ctx, sched.HandleCommand(ctx, "/analyze"), 3); err != nil {
				log.Printf("[ERROR] send startup signal: %v", err)
			}
		}()
	}

	log.Printf("[INFO] SignalDesk is running (%d symbols). Press Ctrl+C to stop.", len(cfg.Symbols))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] SignalDesk stopped")
}
