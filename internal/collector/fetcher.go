package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"SignalDesk/internal/model"
)

// Fetcher defines the interface for fetching price bars.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, tf model.Timeframe, size int) ([]model.Bar, error)
	Name() string
}

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	KindNetwork       ErrorKind = "network"
	KindStatus        ErrorKind = "status"
	KindProvider      ErrorKind = "provider"
	KindMissingValues ErrorKind = "missing-values"
	KindDecode        ErrorKind = "decode"
	KindInsufficient  ErrorKind = "insufficient-history"
)

// FetchError describes why a symbol/interval could not be fetched.
type FetchError struct {
	Kind     ErrorKind
	Source   string
	Symbol   string
	Interval model.Timeframe
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s %s: %s: %v", e.Source, e.Symbol, e.Interval, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the kind of a FetchError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// cleanBars drops non-finite rows, sorts ascending and removes duplicate
// timestamps, keeping the first occurrence.
func cleanBars(bars []model.Bar) []model.Bar {
	out := make([]model.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Time.IsZero() || !model.Defined(b.Open, b.High, b.Low, b.Close) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	dedup := out[:0]
	for i, b := range out {
		if i > 0 && b.Time.Equal(dedup[len(dedup)-1].Time) {
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}
