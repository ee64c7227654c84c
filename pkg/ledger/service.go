// Package ledger composes the record store and the integrity channel into
// the transfer workflow: build a transaction, record it locally, transmit
// it with its digest, and persist verified transactions received from peers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbitra/pkg/core"
	"github.com/aretw0/arbitra/pkg/integrity"
	"github.com/aretw0/arbitra/pkg/store"
	"github.com/aretw0/arbitra/pkg/typed"
)

const (
	// HistoryDocument is the list document holding recent transactions.
	HistoryDocument = "recenttx"
	// PeersDocument is the keyed document holding known peer addresses.
	PeersDocument = "peers"
	// PeersKey is the key in PeersDocument whose array is merged on every write.
	PeersKey = "addresses"
	// DefaultOrigin is written into the "from" header field.
	DefaultOrigin = "127.0.0.1"
)

// Service is the ledger application service.
type Service struct {
	store   *store.Store
	history *typed.List[core.Transaction]
	client  *integrity.Client
	logger  *slog.Logger
	now     func() time.Time
	origin  string

	mu        sync.Mutex
	submitted uint64
	received  uint64
	rejected  uint64
	last      *time.Time
}

// NewService creates a ledger service on top of st.
func NewService(st *store.Store, opts ...Option) (*Service, error) {
	history, err := typed.OpenList[core.Transaction](st, HistoryDocument)
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:   st,
		history: history,
		now:     time.Now,
		origin:  DefaultOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.client == nil {
		s.client = integrity.NewClient(s.logger)
	}
	return s, nil
}

// NewTransaction creates a validated transaction stamped with the current time.
func (s *Service) NewTransaction(sender, receiver string, amount core.Amount) (core.Transaction, error) {
	tx := core.Transaction{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Time:     s.now().UnixMilli(),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// BuildTransaction creates a transaction and the message that carries it.
func (s *Service) BuildTransaction(sender, receiver string, amount core.Amount) (integrity.Message, core.Transaction, error) {
	tx, err := s.NewTransaction(sender, receiver, amount)
	if err != nil {
		return integrity.Message{}, core.Transaction{}, err
	}
	msg, err := s.message(tx)
	if err != nil {
		return integrity.Message{}, core.Transaction{}, err
	}
	return msg, tx, nil
}

func (s *Service) message(tx core.Transaction) (integrity.Message, error) {
	return integrity.Build(core.MessageTypeTransaction, s.origin, tx)
}

// Record appends tx to the local history.
func (s *Service) Record(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.history.Append(ctx, tx); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// History returns the recorded transactions, oldest first.
func (s *Service) History(ctx context.Context) ([]core.Transaction, error) {
	return s.history.All(ctx)
}

// Submit records tx locally, then transmits it to the peer at addr. The
// local record is kept even when transmission fails. A verified peer is
// remembered.
func (s *Service) Submit(ctx context.Context, addr string, tx core.Transaction) (integrity.Ack, error) {
	msg, err := s.message(tx)
	if err != nil {
		return integrity.Ack{}, err
	}
	if err := s.Record(ctx, tx); err != nil {
		return integrity.Ack{}, err
	}
	s.touch(&s.submitted)

	ack, err := s.client.SendMessage(ctx, addr, msg)
	if err != nil {
		s.logger.Warn("transaction not accepted by peer", "addr", addr, "hash", msg.Header.Hash, "error", err)
		return ack, err
	}
	s.logger.Info("transaction delivered", "addr", addr, "hash", msg.Header.Hash)

	if err := s.RememberPeer(ctx, addr); err != nil {
		s.logger.Warn("failed to remember peer", "addr", addr, "error", err)
	}
	return ack, nil
}

// HandleMessage persists a verified transaction received from a peer. It
// implements integrity.MessageHandler. Messages of other types are ignored.
func (s *Service) HandleMessage(ctx context.Context, v integrity.Verdict) error {
	// integrity.Receiver only hands over verified frames. Direct callers
	// (verify tooling, replays) may not, so the check stays.
	if !v.Verified() {
		s.touch(&s.rejected)
		return core.ErrDigestMismatch
	}
	if v.Message.Header.Type != core.MessageTypeTransaction {
		s.logger.Debug("ignoring message", "type", v.Message.Header.Type)
		return nil
	}

	var tx core.Transaction
	if err := v.Message.Decode(&tx); err != nil {
		s.touch(&s.rejected)
		return errors.Join(core.ErrInvalidTransaction, err)
	}
	if err := s.Record(ctx, tx); err != nil {
		s.touch(&s.rejected)
		return err
	}
	s.touch(&s.received)
	s.logger.Info("transaction received", "from", v.Message.Header.From, "sender", tx.Sender, "amount", tx.Amount.String())
	return nil
}

var _ integrity.MessageHandler = (*Service)(nil)

// RememberPeer adds addr to the known peers. The peers array is merged, so
// remembering an address twice keeps one entry.
func (s *Service) RememberPeer(ctx context.Context, addr string) error {
	if addr == "" {
		return errors.New("empty peer address")
	}
	return s.store.Put(ctx, PeersDocument, PeersKey, []string{addr})
}

// Peers returns the known peer addresses.
func (s *Service) Peers(ctx context.Context) ([]string, error) {
	peers, _, err := typed.Get[[]string](ctx, s.store, PeersDocument, PeersKey)
	return peers, err
}

func (s *Service) touch(counter *uint64) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter++
	s.last = &now
}
