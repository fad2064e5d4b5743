package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"SignalDesk/internal/analyzer"
	"SignalDesk/internal/config"
	"SignalDesk/internal/model"
	"SignalDesk/internal/notifier"
)

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// History lists journaled signals.
type History interface {
	RecentSignals(symbol string, limit int) ([]model.Signal, error)
}

const historyLimit = 10

// Scheduler serialises refreshes behind one cooldown and serves commands.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer *analyzer.Analyzer
	Notifier Sender
	History  History
	Symbols  []string
	Ctx      context.Context

	mu       sync.Mutex
	cooldown analyzer.Cooldown
	next     int
	now      func() time.Time
}

// NewScheduler creates a new Scheduler. Symbols[0] is the default for
// /analyze without an argument.
func NewScheduler(ctx context.Context, an *analyzer.Analyzer, tn Sender, symbols []string, cooldown time.Duration) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Analyzer: an,
		Notifier: tn,
		Symbols:  symbols,
		Ctx:      ctx,
		cooldown: analyzer.NewCooldown(cooldown),
		now:      time.Now,
	}
}

// RegisterAnalyze schedules a refresh of the next watched symbol on spec.
// Each tick advances through the watch list so the shared cooldown and the
// provider quota are respected.
func (s *Scheduler) RegisterAnalyze(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.scheduledTask); err != nil {
		return fmt.Errorf("register analyze task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Analyze refreshes symbol through the shared cooldown.
func (s *Scheduler) Analyze(ctx context.Context, symbol string) (*analyzer.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, next, err := s.Analyzer.Analyze(ctx, s.cooldown, symbol, s.now())
	s.cooldown = next
	return report, err
}

func (s *Scheduler) scheduledTask() {
	if len(s.Symbols) == 0 {
		return
	}
	s.mu.Lock()
	symbol := s.Symbols[s.next%len(s.Symbols)]
	s.mu.Unlock()

	log.Printf("[INFO] running scheduled analyze: %s", symbol)
	report, err := s.Analyze(s.Ctx, symbol)
	var cerr *analyzer.CooldownError
	switch {
	case errors.As(err, &cerr):
		log.Printf("[INFO] scheduled analyze skipped, cooldown %ds", analyzer.WaitSeconds(cerr.Remaining))
		return
	case err != nil:
		log.Printf("[ERROR] scheduled analyze %s: %v", symbol, err)
	case report.Signal.Type.Actionable():
		s.trySend(notifier.FormatSignal(report))
	}

	s.mu.Lock()
	s.next++
	s.mu.Unlock()
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return s.help()
	}
	// Group chats append the bot name: /analyze@SignalDeskBot
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/analyze", "/refresh":
		symbol, ok := s.resolveSymbol(args)
		if !ok && len(args) == 0 {
			return "No symbols configured."
		}
		if !ok {
			return fmt.Sprintf("Unknown symbol %q. Try /symbols.", args[0])
		}
		return s.analyzeReply(ctx, symbol)
	case "/symbols":
		return "👀 Watching: " + strings.Join(s.Symbols, ", ")
	case "/history":
		return s.history(args)
	case "/status":
		s.mu.Lock()
		left := s.cooldown.Remaining(s.now())
		s.mu.Unlock()
		if left > 0 {
			return notifier.FormatCooldown(left)
		}
		return "✅ Ready to refresh."
	default:
		return s.help()
	}
}

func (s *Scheduler) analyzeReply(ctx context.Context, symbol string) string {
	report, err := s.Analyze(ctx, symbol)
	var cerr *analyzer.CooldownError
	switch {
	case errors.As(err, &cerr):
		return notifier.FormatCooldown(cerr.Remaining)
	case err != nil:
		log.Printf("[ERROR] analyze %s: %v", symbol, err)
		return notifier.FormatError(symbol, err)
	default:
		return notifier.FormatSignal(report)
	}
}

func (s *Scheduler) resolveSymbol(args []string) (string, bool) {
	if len(args) == 0 {
		if len(s.Symbols) == 0 {
			return "", false
		}
		return s.Symbols[0], true
	}
	want := config.NormalizeSymbol(args[0])
	for _, sym := range s.Symbols {
		if sym == want {
			return sym, true
		}
	}
	return "", false
}

func (s *Scheduler) history(args []string) string {
	if s.History == nil {
		return "History is unavailable: no SQLite journal configured."
	}
	symbol := ""
	limit := historyLimit
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil && n > 0 {
			limit = n
			continue
		}
		symbol = config.NormalizeSymbol(a)
	}
	signals, err := s.History.RecentSignals(symbol, limit)
	if err != nil {
		log.Printf("[ERROR] read history: %v", err)
		return notifier.FormatError("history", err)
	}
	return notifier.FormatHistory(signals)
}

func (s *Scheduler) help() string {
	return "Available commands:\n" +
		"• /analyze [SYMBOL]: refresh and score a symbol\n" +
		"• /symbols: list watched symbols\n" +
		"• /history [SYMBOL] [N]: recent journaled signals\n" +
		"• /status: cooldown state"
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
