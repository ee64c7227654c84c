// Package core holds the domain types shared by the record store, the
// integrity channel and the ledger service.
package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change observed on a document.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a stored document.
type Event struct {
	Type      EventType
	Name      string // logical document name, without extension
	Timestamp int64  // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Name)
}

// MessageTypeTransaction is the header type of a transfer message.
const MessageTypeTransaction = "transaction"

// Transaction is a single transfer between two parties.
// It is created once and never mutated afterwards.
type Transaction struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Amount   Amount `json:"amount"`
	// Time is the creation instant in Unix milliseconds.
	Time int64 `json:"time"`
}

// At returns the creation instant as a time.Time.
func (t Transaction) At() time.Time {
	return time.UnixMilli(t.Time)
}

// Validate checks the invariants a transaction must hold before it is
// stored or transmitted.
func (t Transaction) Validate() error {
	if t.Sender == "" {
		return fmt.Errorf("%w: sender is empty", ErrInvalidTransaction)
	}
	if t.Receiver == "" {
		return fmt.Errorf("%w: receiver is empty", ErrInvalidTransaction)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidTransaction, t.Amount)
	}
	return nil
}
