// Package poller waits for an uploaded document to reach a terminal state.
package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/valpere/deepler/internal/deepl"
)

// ErrDocumentFailed is returned when the service reports the error state.
var ErrDocumentFailed = errors.New("document translation failed")

// StatusChecker queries a document's state. *deepl.Client satisfies it.
type StatusChecker interface {
	DocumentStatus(ctx context.Context, doc deepl.Document) (*deepl.DocumentStatus, error)
}

// Phase is the local view of a job's progress.
type Phase int

const (
	Uploaded Phase = iota
	Queued
	Translating
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Uploaded:
		return "uploaded"
	case Queued:
		return "queued"
	case Translating:
		return "translating"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Terminal reports whether the phase is final.
func (p Phase) Terminal() bool {
	return p == Done || p == Failed
}

func phaseOf(s deepl.DocumentState) Phase {
	switch s {
	case deepl.StateQueued:
		return Queued
	case deepl.StateTranslating:
		return Translating
	case deepl.StateDone:
		return Done
	case deepl.StateError:
		return Failed
	}
	return Uploaded
}

// Waiter polls a StatusChecker until the document is done or failed.
type Waiter struct {
	checker StatusChecker
	backoff Backoff
	sleep   Sleeper
	logger  zerolog.Logger

	// OnStatus, when set, is called with every status received.
	OnStatus func(*deepl.DocumentStatus)
}

// WaiterOption configures a Waiter.
type WaiterOption func(*Waiter)

// WithBackoff sets the polling schedule.
func WithBackoff(b Backoff) WaiterOption {
	return func(w *Waiter) { w.backoff = b }
}

// WithSleeper replaces the real clock, mainly for tests.
func WithSleeper(s Sleeper) WaiterOption {
	return func(w *Waiter) { w.sleep = s }
}

// WithLogger sets the logger for transitions.
func WithLogger(l zerolog.Logger) WaiterOption {
	return func(w *Waiter) { w.logger = l }
}

// New creates a Waiter for checker.
func New(checker StatusChecker, opts ...WaiterOption) *Waiter {
	w := &Waiter{
		checker: checker,
		backoff: DefaultBackoff,
		sleep:   Sleep,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait polls until doc reaches a terminal state and returns the last status.
// The first check happens immediately. A document in the error state returns
// its status together with an error wrapping ErrDocumentFailed. Cancelling ctx
// stops polling only; the job keeps running on the service.
func (w *Waiter) Wait(ctx context.Context, doc deepl.Document) (*deepl.DocumentStatus, error) {
	phase := Uploaded
	for attempt := 0; ; attempt++ {
		status, err := w.checker.DocumentStatus(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to check document %s: %w", doc.ID, err)
		}
		if w.OnStatus != nil {
			w.OnStatus(status)
		}

		next := phaseOf(status.State)
		if next < phase {
			w.logger.Warn().
				Str("document_id", doc.ID).
				Stringer("from", phase).
				Stringer("to", next).
				Msg("document state went backwards")
		} else if next != phase {
			w.logger.Debug().
				Str("document_id", doc.ID).
				Stringer("from", phase).
				Stringer("to", next).
				Msg("document state changed")
		}
		phase = next

		switch phase {
		case Done:
			return status, nil
		case Failed:
			msg := status.ErrorMessage
			if msg == "" {
				msg = "no reason given"
			}
			return status, fmt.Errorf("%w: %s", ErrDocumentFailed, msg)
		}

		delay := w.backoff.Delay(attempt)
		if status.SecondsRemaining != nil && *status.SecondsRemaining > 0 {
			delay = w.backoff.hint(*status.SecondsRemaining)
		}
		if err := w.sleep(ctx, delay); err != nil {
			return status, err
		}
	}
}
