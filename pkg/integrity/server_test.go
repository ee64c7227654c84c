package integrity_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbitra/pkg/core"
	"github.com/aretw0/arbitra/pkg/integrity"
)

// serve runs s on a loopback listener until the test ends.
func serve(t *testing.T, s *integrity.Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

type recorder struct {
	mu       sync.Mutex
	verdicts []integrity.Verdict
}

func (r *recorder) HandleMessage(_ context.Context, v integrity.Verdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, v)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.verdicts)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestServer_VerifiedMessage(t *testing.T) {
	rec := &recorder{}
	addr := serve(t, integrity.NewServer(integrity.ServerConfig{Handler: rec}))
	client := integrity.NewClient(nil)

	m := sampleMessage(t)
	ack, err := client.SendMessage(testContext(t), addr, m)
	require.NoError(t, err)
	assert.Equal(t, integrity.OutcomeVerified, ack.Status)
	assert.Equal(t, m.Header.Hash, ack.Hash)

	require.Equal(t, 1, rec.count())
	got := rec.verdicts[0]
	assert.JSONEq(t, string(m.Body), string(got.Message.Body))
	assert.Equal(t, "127.0.0.1", got.Message.Header.From)
}

func TestServer_TamperedMessage(t *testing.T) {
	rec := &recorder{}
	addr := serve(t, integrity.NewServer(integrity.ServerConfig{Handler: rec}))
	client := integrity.NewClient(nil)

	m := sampleMessage(t)
	m.Body = json.RawMessage(`{"sender":"me","receiver":"mallory","amount":1000,"time":1500000000000}`)

	ack, err := client.SendMessage(testContext(t), addr, m)
	assert.ErrorIs(t, err, core.ErrDigestMismatch)
	assert.Equal(t, integrity.OutcomeMismatch, ack.Status)
	assert.Equal(t, integrity.Digest(m.Body), ack.Hash)
	assert.Zero(t, rec.count())
}

func TestServer_ManyFramesOnOneConnection(t *testing.T) {
	rec := &recorder{}
	addr := serve(t, integrity.NewServer(integrity.ServerConfig{Handler: rec}))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	valid := encode(t, sampleMessage(t))
	payload := "this is not json\n\n" + string(valid) + "\n" + string(valid)
	_, err = conn.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	var statuses []integrity.Outcome
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var ack integrity.Ack
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ack))
		statuses = append(statuses, ack.Status)
	}
	require.NoError(t, sc.Err())

	assert.Equal(t, []integrity.Outcome{
		integrity.OutcomeInvalid,
		integrity.OutcomeVerified,
		integrity.OutcomeVerified,
	}, statuses)
	assert.Equal(t, 2, rec.count())
}

func TestServer_RelayedBodyWithHTMLCharacters(t *testing.T) {
	rec := &recorder{}
	addr := serve(t, integrity.NewServer(integrity.ServerConfig{Handler: rec}))

	body := `{"sender":"<script>","receiver":"a&b","amount":3,"time":1}`
	received, err := integrity.Parse([]byte(`{"header":{"type":"transaction","hash":"` +
		integrity.Digest([]byte(body)) + `","from":"10.0.0.2"},"body":` + body + `}`))
	require.NoError(t, err)

	ack, err := integrity.NewClient(nil).SendMessage(testContext(t), addr, received)
	require.NoError(t, err)
	assert.Equal(t, integrity.OutcomeVerified, ack.Status)
	assert.Equal(t, 1, rec.count())
}

func TestServer_ReusableClientConn(t *testing.T) {
	addr := serve(t, integrity.NewServer(integrity.ServerConfig{}))
	ctx := testContext(t)

	conn, err := integrity.NewClient(nil).Dial(ctx, addr)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		ack, err := conn.Send(ctx, sampleMessage(t))
		require.NoError(t, err)
		assert.Equal(t, integrity.OutcomeVerified, ack.Status)
	}
}

func TestServer_OversizedFrameClosesConnection(t *testing.T) {
	addr := serve(t, integrity.NewServer(integrity.ServerConfig{MaxFrameSize: 64}))

	_, err := integrity.NewClient(nil).SendMessage(testContext(t), addr, sampleMessage(t))
	assert.Error(t, err)
}

func TestServer_StopsOnCancel(t *testing.T) {
	s := integrity.NewServer(integrity.ServerConfig{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	// An idle open connection must not keep the server alive.
	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return s.State().(integrity.ServerState).Accepted == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	state := s.State().(integrity.ServerState)
	assert.False(t, state.Listening)
	assert.Equal(t, 0, state.Active)
	assert.Equal(t, "messages", state.Endpoint)
	assert.Equal(t, "integrity-messages", s.ComponentType())
}

func TestServer_ConnectionLimit(t *testing.T) {
	s := integrity.NewServer(integrity.ServerConfig{MaxConnections: 1})
	addr := serve(t, s)
	ctx := testContext(t)

	held, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return s.State().(integrity.ServerState).Active == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = integrity.NewClient(nil).SendMessage(ctx, addr, sampleMessage(t))
	assert.Error(t, err, "connection over the limit must be closed")
	assert.Eventually(t, func() bool {
		return s.State().(integrity.ServerState).Refused == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, held.Close())
	require.Eventually(t, func() bool {
		return s.State().(integrity.ServerState).Active == 0
	}, 2*time.Second, 10*time.Millisecond)

	ack, err := integrity.NewClient(nil).SendMessage(ctx, addr, sampleMessage(t))
	require.NoError(t, err)
	assert.Equal(t, integrity.OutcomeVerified, ack.Status)
	assert.Equal(t, 1, s.State().(integrity.ServerState).MaxConns)
}

func TestServer_DefaultAddrs(t *testing.T) {
	assert.Equal(t, integrity.DefaultMessageAddr, integrity.NewServer(integrity.ServerConfig{}).State().(integrity.ServerState).Addr)
	assert.Equal(t, integrity.DefaultOracleAddr, integrity.NewOracle(integrity.ServerConfig{}).State().(integrity.ServerState).Addr)
	assert.Nil(t, integrity.NewServer(integrity.ServerConfig{}).Addr())
}

func TestClient_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = integrity.NewClient(nil).SendMessage(testContext(t), addr, sampleMessage(t))
	assert.Error(t, err)
}
