package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/arbitra/pkg/core"
)

// KeyedDocument is a document shaped as a mapping from string keys to values.
type KeyedDocument struct {
	handle
}

// load returns the decoded mapping. Errors wrap core.ErrNotFound for a
// missing file, errCorrupt for unparsable content and core.ErrShapeMismatch
// for a list document; anything else is an I/O fault.
func (d *KeyedDocument) load() (map[string]any, error) {
	data, err := d.read()
	if err != nil {
		return nil, err
	}

	switch classify(data) {
	case shapeList:
		return nil, fmt.Errorf("%w: %s is a list document", core.ErrShapeMismatch, d.name)
	case shapeCorrupt:
		return nil, fmt.Errorf("%s: %w", d.name, errCorrupt)
	}

	var doc map[string]any
	if err := decodeExact(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, errCorrupt)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	return doc, nil
}

// Get returns the value under key, or fallback when the document or key is
// absent. Unparsable content also yields fallback and is logged.
func (d *KeyedDocument) Get(ctx context.Context, key string, fallback any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := d.load()
	switch {
	case errors.Is(err, core.ErrNotFound):
		d.store.logger.Debug("document not found", "name", d.name)
		return fallback, nil
	case errors.Is(err, errCorrupt):
		d.store.logger.Warn("unreadable document, using fallback", "name", d.name, "error", err)
		return fallback, nil
	case err != nil:
		return nil, err
	}

	value, ok := doc[key]
	if !ok {
		return fallback, nil
	}
	return value, nil
}

// Put assigns value to key. When key already holds an array and value is an
// array too, the stored value becomes the set union of both. Any other
// combination overwrites. Unparsable content is discarded and replaced by a
// document holding only key.
func (d *KeyedDocument) Put(ctx context.Context, key string, value any) error {
	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s/%s: %w", d.name, key, err)
	}

	release, err := d.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	doc, err := d.load()
	switch {
	case errors.Is(err, core.ErrNotFound):
		doc = make(map[string]any)
	case errors.Is(err, errCorrupt):
		d.store.logger.Warn("discarding unreadable document", "name", d.name, "error", err)
		doc = make(map[string]any)
	case err != nil:
		return err
	}

	incoming, incomingIsList := normalized.([]any)
	current, currentIsList := doc[key].([]any)
	if _, exists := doc[key]; exists && incomingIsList && currentIsList {
		doc[key] = union(current, incoming)
	} else {
		doc[key] = normalized
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	return d.write(data)
}

// Replace overwrites the whole document with doc.
func (d *KeyedDocument) Replace(ctx context.Context, doc map[string]any) error {
	if doc == nil {
		doc = make(map[string]any)
	}
	return d.store.PutAll(ctx, d.name, doc)
}

// Keys returns the sorted keys of the document. Absent or unreadable
// documents have no keys.
func (d *KeyedDocument) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := d.load()
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, errCorrupt):
		return nil, nil
	case err != nil:
		return nil, err
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Raw returns the unparsed content, or fallback when absent.
func (d *KeyedDocument) Raw(ctx context.Context, fallback []byte) ([]byte, error) {
	return d.raw(ctx, fallback)
}
