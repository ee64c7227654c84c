package integrity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bitmark-inc/listener"
	"github.com/google/uuid"
)

const (
	// DefaultMessageAddr is where the message endpoint listens by default.
	DefaultMessageAddr = "127.0.0.1:8081"
	// DefaultOracleAddr is where the hash oracle listens by default.
	DefaultOracleAddr = "127.0.0.1:8080"
	// DefaultMaxConnections bounds the connections served at once per endpoint.
	DefaultMaxConnections = 64
)

// Endpoint kinds reported by Server.State and used as metric labels.
const (
	EndpointMessages = "messages"
	EndpointOracle   = "oracle"
)

// ServerConfig configures a message endpoint or a hash oracle.
type ServerConfig struct {
	Addr    string // used by ListenAndServe
	Logger  *slog.Logger
	Metrics *Metrics       // optional
	Handler MessageHandler // optional, message endpoint only
	// MaxFrameSize bounds one message frame. Zero means DefaultMaxFrameSize.
	MaxFrameSize int
	// MaxConnections bounds concurrent connections. Zero means
	// DefaultMaxConnections. Connections over the limit are closed at once.
	MaxConnections int
	// ErrorHandler receives panics recovered from connection goroutines. Optional.
	ErrorHandler func(error)
}

type connFunc func(ctx context.Context, conn net.Conn, logger *slog.Logger) error

// Server accepts TCP connections and serves each one on its own goroutine.
type Server struct {
	kind   string
	config ServerConfig
	logger *slog.Logger
	serve  connFunc
	limit  *listener.Limiter

	mu       sync.RWMutex
	listener net.Listener
	serving  bool
	accepted uint64
	refused  uint64
	started  *time.Time
	conns    sync.WaitGroup
}

// NewServer creates the message endpoint: every frame received is verified
// and answered with an Ack.
func NewServer(config ServerConfig) *Server {
	if config.Addr == "" {
		config.Addr = DefaultMessageAddr
	}
	if config.MaxFrameSize <= 0 {
		config.MaxFrameSize = DefaultMaxFrameSize
	}
	s := newServer(EndpointMessages, config)
	s.serve = s.serveMessages
	return s
}

// NewOracle creates the hash oracle endpoint.
func NewOracle(config ServerConfig) *Server {
	if config.Addr == "" {
		config.Addr = DefaultOracleAddr
	}
	s := newServer(EndpointOracle, config)
	s.serve = s.serveDigests
	return s
}

func newServer(kind string, config ServerConfig) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = DefaultMaxConnections
	}
	return &Server{
		kind:   kind,
		config: config,
		logger: logger.With("endpoint", kind),
		limit:  listener.NewLimiter(config.MaxConnections),
	}
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes the
// listener and waits for open connections to finish. It takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	now := time.Now()
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return errors.New("server already serving")
	}
	s.listener = ln
	s.serving = true
	s.started = &now
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.serving = false
		s.mu.Unlock()
	}()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.logger.Info("listening", "addr", ln.Addr().String())
	defer s.logger.Info("stopped listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.conns.Wait()
				return nil
			}
			_ = ln.Close()
			return fmt.Errorf("accept failed: %w", err)
		}
		if !s.limit.Increment() {
			s.refuse(conn)
			continue
		}
		s.handle(ctx, conn)
	}
}

func (s *Server) refuse(conn net.Conn) {
	s.mu.Lock()
	s.refused++
	s.mu.Unlock()
	s.config.Metrics.observeRefused(s.kind)
	s.logger.Warn("connection limit reached", "remote", conn.RemoteAddr().String(), "limit", s.config.MaxConnections)
	_ = conn.Close()
}

// handle serves conn on its own goroutine. The caller holds a limiter slot.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	id := uuid.Must(uuid.NewV7()).String()
	logger := s.logger.With("conn", id, "remote", conn.RemoteAddr().String())

	s.mu.Lock()
	s.accepted++
	s.mu.Unlock()
	s.config.Metrics.observeConnection(s.kind)

	s.conns.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer s.conns.Done()
		defer s.limit.Decrement()
		defer conn.Close()
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()

		logger.Debug("connection accepted")
		if err := s.serve(ctx, conn, logger); err != nil && ctx.Err() == nil {
			logger.Warn("connection failed", "error", err)
			return err
		}
		logger.Debug("connection closed")
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		if s.config.ErrorHandler != nil {
			s.config.ErrorHandler(fmt.Errorf("connection panic: %w", err))
		} else {
			logger.Error("connection panic", "error", err)
		}
	}))
}

func (s *Server) serveMessages(ctx context.Context, conn net.Conn, logger *slog.Logger) error {
	receiver := NewReceiver(logger, s.config.Metrics, s.config.Handler)
	sc := newFrameScanner(conn, s.config.MaxFrameSize)
	for sc.Scan() {
		frame := sc.Bytes()
		if len(frame) == 0 {
			continue
		}
		ack := receiver.Receive(ctx, frame)
		if err := writeFrame(conn, ack); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read frame: %w", err)
	}
	return nil
}

func (s *Server) serveDigests(ctx context.Context, conn net.Conn, logger *slog.Logger) error {
	n, err := RespondWithDigest(ctx, conn)
	s.config.Metrics.observeDigests(n)
	logger.Debug("digests served", "chunks", n)
	return err
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
