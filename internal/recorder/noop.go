package recorder

import "SignalDesk/internal/model"

// NoopRecorder is a no-op implementation used when no journal is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *model.Signal, _ []model.TimeframeAssessment) error {
	return nil
}
func (n *NoopRecorder) Close() error { return nil }
