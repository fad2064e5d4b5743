// Command signal runs one refresh for a symbol and prints the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html"
	"log"
	"os"
	"regexp"
	"time"

	"SignalDesk/internal/analyzer"
	"SignalDesk/internal/app"
	"SignalDesk/internal/config"
	"SignalDesk/internal/notifier"
)

var tags = regexp.MustCompile(`</?b>`)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	symbol := flag.String("symbol", "", "pair to analyze (default: first watched symbol)")
	profile := flag.String("profile", "", "override the strategy profile (gold, multi, breakout)")
	timeout := flag.Duration("timeout", 60*time.Second, "overall refresh timeout")
	flag.Parse()

	if *profile != "" {
		os.Setenv("SIGNALDESK_PROFILE", *profile)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	sym := config.NormalizeSymbol(*symbol)
	if sym == "" {
		sym = cfg.Symbols[0]
	}

	a, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("[FATAL] build pipeline: %v", err)
	}
	code := run(a, cfg, sym, *timeout)
	a.Close()
	os.Exit(code)
}

// run performs one refresh and returns the process exit code.
func run(a *app.App, cfg *config.Config, sym string, timeout time.Duration) int {
	cd, err := analyzer.LoadCooldown(cfg.Journal.CooldownState, cfg.CooldownInterval())
	if err != nil {
		log.Printf("[WARN] read cooldown state, starting fresh: %v", err)
		cd = analyzer.NewCooldown(cfg.CooldownInterval())
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, next, err := a.Analyzer.Analyze(ctx, cd, sym, time.Now())
	if err := analyzer.SaveCooldown(cfg.Journal.CooldownState, next); err != nil {
		log.Printf("[WARN] save cooldown state: %v", err)
	}

	var cerr *analyzer.CooldownError
	switch {
	case errors.As(err, &cerr):
		fmt.Println(plain(notifier.FormatCooldown(cerr.Remaining)))
		return 2
	case err != nil:
		fmt.Println(plain(notifier.FormatError(sym, err)))
		return 1
	}
	fmt.Print(plain(notifier.FormatSignal(report)))
	return 0
}

// plain strips the Telegram markup for terminal output.
func plain(s string) string {
	return html.UnescapeString(tags.ReplaceAllString(s, ""))
}
