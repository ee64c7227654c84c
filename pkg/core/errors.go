package core

import "errors"

// Common errors.
var (
	ErrReadOnly = errors.New("store is in read-only mode")

	// ErrNotFound marks an absent document. The store recovers from it
	// locally and never returns it from Get, GetAll, Put or Append.
	ErrNotFound = errors.New("document not found")

	// ErrShapeMismatch is returned when a keyed handle meets a list
	// document or a list handle meets a keyed document.
	ErrShapeMismatch = errors.New("document shape mismatch")

	ErrInvalidName = errors.New("invalid document name")

	// ErrInvalidMessage is returned when received bytes do not parse as a
	// structured message.
	ErrInvalidMessage = errors.New("invalid message")

	ErrDigestMismatch = errors.New("digest mismatch")

	ErrInvalidTransaction = errors.New("invalid transaction")
)
