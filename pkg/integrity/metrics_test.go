package integrity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeFrame(OutcomeVerified, "transaction")
		m.observeConnection(EndpointMessages)
		m.observeRefused(EndpointOracle)
		m.observeDigests(3)
	})
}

func TestMetrics_CountsFrames(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	r := NewReceiver(nil, m, nil)
	good, err := Build("transaction", "127.0.0.1", map[string]int{"amount": 1})
	require.NoError(t, err)
	frame, err := good.Encode()
	require.NoError(t, err)

	r.Receive(context.Background(), frame)
	r.Receive(context.Background(), frame)
	r.Receive(context.Background(), []byte("nope"))

	other, err := Build("ping", "127.0.0.1", "hi")
	require.NoError(t, err)
	other.Header.Hash = "bad"
	frame, err = other.Encode()
	require.NoError(t, err)
	r.Receive(context.Background(), frame)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.frames.WithLabelValues("verified", "transaction")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frames.WithLabelValues("invalid", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frames.WithLabelValues("mismatch", "unknown")))
}

func TestMetrics_CountsRefusedConnections(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.observeRefused(EndpointMessages)
	m.observeRefused(EndpointMessages)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.refused.WithLabelValues(EndpointMessages)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.refused.WithLabelValues(EndpointOracle)))
}

func TestMetrics_CountsOracleDigests(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	oracle := NewOracle(ServerConfig{Metrics: m})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- oracle.Serve(ctx, ln) }()

	_, err = NewClient(nil).RequestDigest(ctx, ln.Addr().String(), []byte("abc"))
	require.NoError(t, err)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections.WithLabelValues(EndpointOracle)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.digests), 1.0)
}
