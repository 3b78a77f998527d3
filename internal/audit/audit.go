// Package audit emits structured audit records for mutating operations.
// Records are written asynchronously on the background pool; the sink owns
// durable storage and rotation. A failed audit write is logged but never
// fails the business operation that produced it.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avoronov/peopledesk/internal/dispatch"
	"github.com/avoronov/peopledesk/internal/logging"
	"github.com/avoronov/peopledesk/internal/session"
)

// Record is one audit event. ActingUser is the session principal, or
// "system" for unauthenticated actions such as bootstrap.
type Record struct {
	ID         string
	Timestamp  time.Time
	ActingUser string
	Action     string
	Target     string
	Details    string
}

// Sink receives completed audit records.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// SlogSink writes audit records as structured log lines.
type SlogSink struct {
	log logging.Logger
}

func NewSlogSink(log logging.Logger) *SlogSink {
	return &SlogSink{log: log.With("channel", "audit")}
}

func (s *SlogSink) Write(ctx context.Context, rec Record) error {
	s.log.Info(ctx, "audit",
		"id", rec.ID,
		"ts", rec.Timestamp.Format(time.RFC3339Nano),
		"actor", rec.ActingUser,
		"action", rec.Action,
		"target", rec.Target,
		"details", rec.Details,
	)
	return nil
}

// Recorder stamps and dispatches audit records.
type Recorder struct {
	sink  Sink
	sess  *session.Context
	pool  *dispatch.Pool
	log   logging.Logger
	clock func() time.Time
}

func NewRecorder(sink Sink, sess *session.Context, pool *dispatch.Pool, log logging.Logger) *Recorder {
	return &Recorder{
		sink:  sink,
		sess:  sess,
		pool:  pool,
		log:   log,
		clock: time.Now,
	}
}

// Record builds a record attributed to the current session principal and
// hands it to the sink on the background pool. Fire-and-forget: the caller
// does not wait for the write.
func (r *Recorder) Record(ctx context.Context, action, target, details string) {
	rec := Record{
		ID:         uuid.NewString(),
		Timestamp:  r.clock(),
		ActingUser: r.sess.CurrentUsernameOrSystem(),
		Action:     action,
		Target:     target,
		Details:    details,
	}

	dispatch.Submit(r.pool, func() (struct{}, error) {
		if err := r.sink.Write(ctx, rec); err != nil {
			r.log.Error(ctx, "audit write failed", "action", rec.Action, "target", rec.Target, "error", err)
		}
		return struct{}{}, nil
	})
}
