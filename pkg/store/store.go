// Package store persists keyed and list JSON documents under an application
// data directory, one file per logical document name.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/arbitra/pkg/core"
)

// DefaultNamespace is the directory created under the data root.
const DefaultNamespace = "arbitra-client"

// Config holds the configuration for the document store.
type Config struct {
	Root      string // application data root, e.g. os.UserConfigDir()
	Namespace string // subdirectory of Root holding the documents
	Logger    *slog.Logger
	ReadOnly  bool
	FileMode  os.FileMode // zero means 0644
	// ErrorHandler receives runtime watcher failures. Optional.
	ErrorHandler func(error)
}

// Store reads and writes documents under <Root>/<Namespace>/<name>.json.
// Every read-modify-write on a name is serialized, so concurrent Put or
// Append calls on the same name never lose an update.
type Store struct {
	Path   string
	config Config
	logger *slog.Logger
	locks  *nameLocks

	mu        sync.RWMutex
	watchers  int
	lastWrite *time.Time
	writes    uint64
}

// New creates a store. Call Initialize before the first write.
func New(config Config) *Store {
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	if config.FileMode == 0 {
		config.FileMode = 0o644
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		Path:   filepath.Join(config.Root, config.Namespace),
		config: config,
		logger: logger,
		locks:  newNameLocks(),
	}
}

// Initialize ensures the namespace directory exists.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.ReadOnly {
		return nil
	}
	if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// PathFor returns the file backing a document name.
func (s *Store) PathFor(name string) (string, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Path, clean+Extension), nil
}

// Keyed returns a handle that treats name as a keyed document.
func (s *Store) Keyed(name string) (*KeyedDocument, error) {
	h, err := s.handle(name)
	if err != nil {
		return nil, err
	}
	return &KeyedDocument{handle: h}, nil
}

// List returns a handle that treats name as a list document.
func (s *Store) List(name string) (*ListDocument, error) {
	h, err := s.handle(name)
	if err != nil {
		return nil, err
	}
	return &ListDocument{handle: h}, nil
}

// Get returns the value stored under key in the keyed document name, or
// fallback when the document or the key is absent or unreadable as JSON.
func (s *Store) Get(ctx context.Context, name, key string, fallback any) (any, error) {
	doc, err := s.Keyed(name)
	if err != nil {
		return nil, err
	}
	return doc.Get(ctx, key, fallback)
}

// GetAll returns the raw, unparsed content of a document, or fallback when
// the document does not exist.
func (s *Store) GetAll(ctx context.Context, name string, fallback []byte) ([]byte, error) {
	h, err := s.handle(name)
	if err != nil {
		return nil, err
	}
	return h.raw(ctx, fallback)
}

// Put stores value under key in the keyed document name, merging arrays.
func (s *Store) Put(ctx context.Context, name, key string, value any) error {
	doc, err := s.Keyed(name)
	if err != nil {
		return err
	}
	return doc.Put(ctx, key, value)
}

// PutAll overwrites the whole document name with document. No merge.
// The document must encode as a JSON object or array.
func (s *Store) PutAll(ctx context.Context, name string, document any) error {
	h, err := s.handle(name)
	if err != nil {
		return err
	}
	data, err := encodeDocument(document)
	if err != nil {
		return err
	}
	if sh := classify(data); sh != shapeKeyed && sh != shapeList {
		return fmt.Errorf("%w: %s must be an object or an array", core.ErrShapeMismatch, h.name)
	}

	release, err := h.lock(ctx)
	if err != nil {
		return err
	}
	defer release()
	return h.write(data)
}

// Append pushes record to the end of the list document name.
func (s *Store) Append(ctx context.Context, name string, record any) error {
	list, err := s.List(name)
	if err != nil {
		return err
	}
	return list.Append(ctx, record)
}

// handle carries the resolved identity of one document.
type handle struct {
	store *Store
	name  string
	path  string
}

func (s *Store) handle(name string) (handle, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return handle{}, err
	}
	return handle{
		store: s,
		name:  clean,
		path:  filepath.Join(s.Path, clean+Extension),
	}, nil
}

// Name returns the sanitized document name.
func (h handle) Name() string { return h.name }

// read loads the file content. A missing file yields core.ErrNotFound;
// any other failure is an I/O fault and is returned as such.
func (h handle) read() ([]byte, error) {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, h.name)
	}
	if err != nil {
		h.store.logger.Error("failed to read document", "name", h.name, "error", err)
		return nil, fmt.Errorf("failed to read document %s: %w", h.name, err)
	}
	return data, nil
}

func (h handle) raw(ctx context.Context, fallback []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := h.read()
	if errors.Is(err, core.ErrNotFound) {
		h.store.logger.Debug("document not found", "name", h.name)
		return fallback, nil
	}
	return data, err
}

func (h handle) write(data []byte) error {
	if h.store.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := replaceFile(h.path, data, h.store.config.FileMode); err != nil {
		h.store.logger.Error("failed to write document", "name", h.name, "error", err)
		return err
	}
	h.store.recordWrite()
	return nil
}

func (h handle) lock(ctx context.Context) (func(), error) {
	if h.store.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	return h.store.locks.acquire(ctx, h.name)
}

func encodeDocument(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

func (s *Store) recordWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastWrite = &now
	s.writes++
}
