package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"SignalDesk/internal/analyzer"
	"SignalDesk/internal/model"
	"SignalDesk/internal/strategy"
)

const clockLayout = "15:04:05"

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

func signalIcon(t model.SignalType) string {
	switch t {
	case model.SignalStrongBuy, model.SignalWeakBuy:
		return "🟢"
	case model.SignalStrongSell, model.SignalWeakSell:
		return "🔴"
	case model.SignalNewsBreakout:
		return "📰"
	default:
		return "⚪"
	}
}

// FormatSignal renders a refresh report as a Telegram HTML message.
func FormatSignal(r *analyzer.Report) string {
	sig := r.Signal
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s: %s</b> | %s → %s\n\n",
		signalIcon(sig.Type), html.EscapeString(sig.Symbol), sig.Type,
		sig.Timestamp.Format(clockLayout), sig.Expires.Format(clockLayout)))

	if sig.Headline != "" {
		b.WriteString(fmt.Sprintf("📰 %s\n\n", html.EscapeString(sig.Headline)))
	}

	price := func(v float64) string { return strategy.FormatPrice(v, sig.Precision) }
	b.WriteString(fmt.Sprintf("Entry: %s\n", price(sig.Entry)))
	if sig.HasLevels {
		b.WriteString(fmt.Sprintf("TP1: %s | TP2: %s | TP3: %s\n", price(sig.TP1), price(sig.TP2), price(sig.TP3)))
		b.WriteString(fmt.Sprintf("SL: %s\n", price(sig.StopLoss)))
		b.WriteString(fmt.Sprintf("RRR: %s\n", strategy.FormatPrice(sig.RRR, 2)))
	}

	if r.News == nil {
		b.WriteString(fmt.Sprintf("Score: %+d\n", r.Score))
	}

	if len(r.Assessments) > 0 {
		b.WriteString("\n📈 <b>Breakdown:</b>\n")
		for _, a := range r.Assessments {
			if a.Vetoed {
				b.WriteString(fmt.Sprintf("  %s: vetoed (%s)\n", a.Timeframe.Short(), html.EscapeString(a.VetoReason)))
				continue
			}
			votes := make([]string, len(a.Factors))
			for i, f := range a.Factors {
				votes[i] = fmt.Sprintf("%s %+d", f.Name, f.Vote)
			}
			b.WriteString(fmt.Sprintf("  %s: %+d (%s)\n", a.Timeframe.Short(), a.Total, strings.Join(votes, ", ")))
		}
	}

	if line := Sparkline(r.Closes); line != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", line))
	}
	return b.String()
}

// FormatCooldown tells the user how long to wait before the next refresh.
func FormatCooldown(remaining time.Duration) string {
	return fmt.Sprintf("⏳ Please wait %ds before refreshing again.", analyzer.WaitSeconds(remaining))
}

// FormatError renders a failed refresh.
func FormatError(symbol string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s</b>: refresh failed\n%s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// FormatHistory lists journaled signals, newest first.
func FormatHistory(signals []model.Signal) string {
	if len(signals) == 0 {
		return "No signals journaled yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent signals</b>\n\n")
	for _, s := range signals {
		b.WriteString(fmt.Sprintf("%s %s %s %s @ %s\n",
			signalIcon(s.Type), s.Timestamp.Format("01-02 15:04"), html.EscapeString(s.Symbol), s.Type,
			strategy.FormatPrice(s.Entry, s.Precision)))
	}
	return b.String()
}

// Sparkline draws closes as a row of block characters.
func Sparkline(closes []float64) string {
	if len(closes) < 2 {
		return ""
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range closes {
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	out := make([]rune, len(closes))
	for i, c := range closes {
		idx := 0
		if hi > lo {
			idx = int((c - lo) / (hi - lo) * float64(len(sparkTicks)-1))
		}
		out[i] = sparkTicks[idx]
	}
	return string(out)
}
