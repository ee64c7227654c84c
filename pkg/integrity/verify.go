package integrity

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbitra/pkg/core"
)

// Outcome is the result of checking one received frame.
type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeMismatch Outcome = "mismatch"
	OutcomeInvalid  Outcome = "invalid"
	// OutcomeRejected means the digest matched but the handler refused the message.
	OutcomeRejected Outcome = "rejected"
)

// KnownTypes lists the message types this peer understands.
var KnownTypes = map[string]bool{
	core.MessageTypeTransaction: true,
}

// Verdict describes a parsed message and the integrity check performed on it.
type Verdict struct {
	Message   Message
	Outcome   Outcome
	Computed  string // digest recomputed over the received body
	KnownType bool
}

// Verified reports whether the digest matched.
func (v Verdict) Verified() bool { return v.Outcome == OutcomeVerified }

// VerifyMessage parses data and checks its digest. A parse failure returns
// an error wrapping core.ErrInvalidMessage and no verdict. An unknown type
// is not an error.
func VerifyMessage(data []byte) (Verdict, error) {
	m, err := Parse(data)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{
		Message:   m,
		Computed:  Digest(m.Body),
		KnownType: KnownTypes[m.Header.Type],
		Outcome:   OutcomeMismatch,
	}
	if v.Computed == m.Header.Hash {
		v.Outcome = OutcomeVerified
	}
	return v, nil
}

// MessageHandler consumes verified messages.
type MessageHandler interface {
	HandleMessage(ctx context.Context, v Verdict) error
}

// HandlerFunc adapts a function to MessageHandler.
type HandlerFunc func(ctx context.Context, v Verdict) error

func (f HandlerFunc) HandleMessage(ctx context.Context, v Verdict) error { return f(ctx, v) }

// Receiver runs the receive path for one frame at a time: parse, dispatch on
// type, verify, hand over to the handler and produce the Ack.
type Receiver struct {
	logger  *slog.Logger
	metrics *Metrics
	handler MessageHandler
}

// NewReceiver creates a receiver. metrics and handler may be nil.
func NewReceiver(logger *slog.Logger, metrics *Metrics, handler MessageHandler) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{logger: logger, metrics: metrics, handler: handler}
}

// Receive checks one frame. It never fails: every problem is reported in the Ack.
func (r *Receiver) Receive(ctx context.Context, frame []byte) Ack {
	v, err := VerifyMessage(frame)
	if err != nil {
		r.logger.Warn("message does not parse", "error", err)
		r.metrics.observeFrame(OutcomeInvalid, "")
		return Ack{Status: OutcomeInvalid, Error: err.Error()}
	}

	h := v.Message.Header
	if !v.KnownType {
		r.logger.Info("message type unknown", "type", h.Type, "from", h.From)
	}

	if !v.Verified() {
		r.logger.Warn("hash does not match", "type", h.Type, "from", h.From, "claimed", h.Hash, "computed", v.Computed)
		r.metrics.observeFrame(OutcomeMismatch, h.Type)
		return Ack{Status: OutcomeMismatch, Hash: v.Computed}
	}
	r.logger.Debug("hash matches", "type", h.Type, "from", h.From)

	if r.handler != nil {
		if err := r.handler.HandleMessage(ctx, v); err != nil {
			r.logger.Warn("message rejected by handler", "type", h.Type, "from", h.From, "error", err)
			r.metrics.observeFrame(OutcomeRejected, h.Type)
			return Ack{Status: OutcomeRejected, Hash: v.Computed, Error: err.Error()}
		}
	}

	r.metrics.observeFrame(OutcomeVerified, h.Type)
	return Ack{Status: OutcomeVerified, Hash: v.Computed}
}
