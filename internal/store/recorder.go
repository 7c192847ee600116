package store

import (
	"context"
	"fmt"
	"log/slog"
)

// Recorder stamps runs with an ID and the next seq and writes them.
//
// Thread-safety: Record may be called from several goroutines; the store
// serializes writes.
type Recorder struct {
	store  *Store
	ids    IDGenerator
	clock  *Clock
	logger *slog.Logger
}

// NewRecorder resumes the clock after the log's latest seq. A nil ids
// uses UUIDv7Generator.
func NewRecorder(ctx context.Context, s *Store, ids IDGenerator, logger *slog.Logger) (*Recorder, error) {
	latest, err := s.LatestSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  s,
		ids:    ids,
		clock:  NewClockAt(latest),
		logger: logger.With("component", "store"),
	}, nil
}

// Record assigns run an ID and seq, writes it and returns the stored run.
func (r *Recorder) Record(ctx context.Context, run Run) (Run, error) {
	run.ID = r.ids.Generate()
	run.Seq = r.clock.Next()
	if err := r.store.WriteRun(ctx, run); err != nil {
		return Run{}, err
	}
	r.logger.Debug("run recorded", "id", run.ID, "seq", run.Seq, "status", run.Status)
	return run, nil
}
