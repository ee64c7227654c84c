package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/arbitra/pkg/core"
)

// ListDocument is a document shaped as an ordered sequence of records.
// Records keep insertion order and are never deduplicated.
type ListDocument struct {
	handle
}

func (l *ListDocument) load() ([]json.RawMessage, error) {
	data, err := l.read()
	if err != nil {
		return nil, err
	}

	switch classify(data) {
	case shapeKeyed:
		return nil, fmt.Errorf("%w: %s is a keyed document", core.ErrShapeMismatch, l.name)
	case shapeCorrupt:
		return nil, fmt.Errorf("%s: %w", l.name, errCorrupt)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", l.name, errCorrupt)
	}
	return records, nil
}

// Append pushes record to the end of the list. A missing document starts
// empty; unparsable content is discarded, leaving a list of one record.
func (l *ListDocument) Append(ctx context.Context, record any) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", l.name, err)
	}

	release, err := l.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	records, err := l.load()
	switch {
	case errors.Is(err, core.ErrNotFound):
		records = nil
	case errors.Is(err, errCorrupt):
		l.store.logger.Warn("discarding unreadable list", "name", l.name, "error", err)
		records = nil
	case err != nil:
		return err
	}

	records = append(records, json.RawMessage(encoded))
	data, err := encodeDocument(records)
	if err != nil {
		return err
	}
	return l.write(data)
}

// Records returns every record in insertion order. Absent or unreadable
// lists are empty.
func (l *ListDocument) Records(ctx context.Context) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := l.load()
	switch {
	case errors.Is(err, core.ErrNotFound):
		return nil, nil
	case errors.Is(err, errCorrupt):
		l.store.logger.Warn("unreadable list, treating as empty", "name", l.name, "error", err)
		return nil, nil
	case err != nil:
		return nil, err
	}
	return records, nil
}

// Len returns the number of records.
func (l *ListDocument) Len(ctx context.Context) (int, error) {
	records, err := l.Records(ctx)
	return len(records), err
}

// Raw returns the unparsed content, or fallback when absent.
func (l *ListDocument) Raw(ctx context.Context, fallback []byte) ([]byte, error) {
	return l.raw(ctx, fallback)
}
