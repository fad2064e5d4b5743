package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"SignalDesk/internal/model"
)

// SQLiteRecorder journals signals and their per-timeframe breakdown to SQLite.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			expires     INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			score       INTEGER,
			entry       REAL,
			stop_loss   REAL,
			tp1         REAL,
			tp2         REAL,
			tp3         REAL,
			rrr         REAL,
			has_levels  INTEGER,
			precision   INTEGER,
			headline    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS assessments (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id   TEXT NOT NULL REFERENCES signals(id),
			timeframe   TEXT NOT NULL,
			total       INTEGER,
			vetoed      INTEGER,
			veto_reason TEXT,
			factors     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_signal ON assessments(signal_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSignal stores sig and its assessments in one transaction.
func (r *SQLiteRecorder) RecordSignal(sig *model.Signal, assessments []model.TimeframeAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.Exec(`INSERT INTO signals
		(id, timestamp, expires, symbol, signal_type, score, entry, stop_loss,
		 tp1, tp2, tp3, rrr, has_levels, precision, headline)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, sig.Timestamp.Unix(), sig.Expires.Unix(), sig.Symbol, string(sig.Type), sig.Score,
		sig.Entry, sig.StopLoss, sig.TP1, sig.TP2, sig.TP3, sig.RRR,
		sig.HasLevels, sig.Precision, sig.Headline,
	); err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}

	for _, a := range assessments {
		if _, err := tx.Exec(`INSERT INTO assessments
			(signal_id, timeframe, total, vetoed, veto_reason, factors)
			VALUES (?,?,?,?,?,?)`,
			id, string(a.Timeframe), a.Total, a.Vetoed, a.VetoReason, encodeFactors(a.Factors),
		); err != nil {
			return fmt.Errorf("insert assessment: %w", err)
		}
	}
	return tx.Commit()
}

// RecentSignals returns up to limit signals for symbol, newest first.
// An empty symbol matches every symbol.
func (r *SQLiteRecorder) RecentSignals(symbol string, limit int) ([]model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, expires, symbol, signal_type, score, entry,
		stop_loss, tp1, tp2, tp3, rrr, has_levels, precision, headline
		FROM signals WHERE (? = '' OR symbol = ?)
		ORDER BY timestamp DESC LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var s model.Signal
		var ts, exp int64
		var typ string
		if err := rows.Scan(&ts, &exp, &s.Symbol, &typ, &s.Score, &s.Entry,
			&s.StopLoss, &s.TP1, &s.TP2, &s.TP3, &s.RRR, &s.HasLevels, &s.Precision, &s.Headline); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		s.Type = model.SignalType(typ)
		s.Timestamp = time.Unix(ts, 0)
		s.Expires = time.Unix(exp, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

// encodeFactors renders votes as "trend:+1 rsi:-1 ...".
func encodeFactors(factors []model.FactorScore) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = fmt.Sprintf("%s:%+d", f.Name, f.Vote)
	}
	return strings.Join(parts, " ")
}
