package recorder

import (
	"errors"

	"SignalDesk/internal/model"
)

// Recorder persists actionable signals for later review.
type Recorder interface {
	RecordSignal(sig *model.Signal, assessments []model.TimeframeAssessment) error
	Close() error
}

// MultiRecorder fans a signal out to several recorders.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordSignal(sig *model.Signal, assessments []model.TimeframeAssessment) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordSignal(sig, assessments); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiRecorder) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
