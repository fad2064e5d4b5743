package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/strategy"
)

// CSVHeader is the fixed column layout of the signal log.
var CSVHeader = []string{"datetime", "expires", "symbol", "signal", "entry", "tp1", "tp2", "tp3", "sl", "rrr", "score", "headline"}

const csvTimeLayout = "2006-01-02 15:04:05"

// CSVRecorder appends one row per signal to a delimited text file.
type CSVRecorder struct {
	path string
	mu   sync.Mutex
}

// NewCSVRecorder creates the parent directory of path if needed.
func NewCSVRecorder(path string) (*CSVRecorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	return &CSVRecorder{path: path}, nil
}

// Path returns the log file location.
func (r *CSVRecorder) Path() string { return r.path }

// RecordSignal appends sig. The header is written only when the file is
// empty at the time it is opened.
func (r *CSVRecorder) RecordSignal(sig *model.Signal, _ []model.TimeframeAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open signal log: %w", err)
	}
	defer f.Close()

	pos, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek signal log: %w", err)
	}

	w := csv.NewWriter(f)
	if pos == 0 {
		if err := w.Write(CSVHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(csvRow(sig)); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (r *CSVRecorder) Close() error { return nil }

func csvRow(sig *model.Signal) []string {
	price := func(v float64) string {
		if !sig.HasLevels {
			return ""
		}
		return strategy.FormatPrice(v, sig.Precision)
	}
	rrr := ""
	if sig.HasLevels {
		rrr = strategy.FormatPrice(sig.RRR, 2)
	}
	return []string{
		sig.Timestamp.Format(csvTimeLayout),
		sig.Expires.Format(csvTimeLayout),
		sig.Symbol,
		string(sig.Type),
		strategy.FormatPrice(sig.Entry, sig.Precision),
		price(sig.TP1),
		price(sig.TP2),
		price(sig.TP3),
		price(sig.StopLoss),
		rrr,
		strconv.Itoa(sig.Score),
		sig.Headline,
	}
}

// ReadSignals reads every row of a signal log written by CSVRecorder.
func ReadSignals(path string) ([]model.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = len(CSVHeader)
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read signal log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if strings.Join(records[0], ",") != strings.Join(CSVHeader, ",") {
		return nil, errors.New("signal log: unexpected header")
	}

	signals := make([]model.Signal, 0, len(records)-1)
	for i, rec := range records[1:] {
		sig, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("signal log line %d: %w", i+2, err)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

func parseRow(rec []string) (model.Signal, error) {
	var sig model.Signal
	var err error
	if sig.Timestamp, err = time.ParseInLocation(csvTimeLayout, rec[0], time.Local); err != nil {
		return sig, err
	}
	if sig.Expires, err = time.ParseInLocation(csvTimeLayout, rec[1], time.Local); err != nil {
		return sig, err
	}
	sig.Symbol = rec[2]
	sig.Type = model.SignalType(rec[3])
	if sig.Entry, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return sig, fmt.Errorf("entry: %w", err)
	}
	if dot := strings.IndexByte(rec[4], '.'); dot >= 0 {
		sig.Precision = len(rec[4]) - dot - 1
	}
	if rec[5] != "" {
		sig.HasLevels = true
		for j, dst := range []*float64{&sig.TP1, &sig.TP2, &sig.TP3, &sig.StopLoss, &sig.RRR} {
			if *dst, err = strconv.ParseFloat(rec[5+j], 64); err != nil {
				return sig, fmt.Errorf("%s: %w", CSVHeader[5+j], err)
			}
		}
	}
	if sig.Score, err = strconv.Atoi(rec[10]); err != nil {
		return sig, fmt.Errorf("score: %w", err)
	}
	sig.Headline = rec[11]
	return sig, nil
}
