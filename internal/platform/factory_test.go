package platform_test

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbitra/internal/platform"
	"github.com/aretw0/arbitra/pkg/core"
	"github.com/aretw0/arbitra/pkg/integrity"
	"github.com/aretw0/arbitra/pkg/store"
)

func testConfig() platform.Config {
	cfg := platform.DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	cfg.OracleListen = "127.0.0.1:0"
	return cfg
}

func TestNew_WiresComponents(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	node, err := platform.New(ctx,
		platform.WithConfig(testConfig()),
		platform.WithDataDir(root),
		platform.WithNamespace("node-a"),
		platform.WithOrigin("10.0.0.7"),
		platform.WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "node-a"), node.Store.Path)
	assert.Equal(t, "10.0.0.7", node.Config.Origin)
	assert.NotNil(t, node.Metrics)

	msg, _, err := node.Ledger.BuildTransaction("me", "you", core.NewAmount(3))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", msg.Header.From)
}

func TestNew_DuplicateRegistererFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := []platform.Option{
		platform.WithConfig(testConfig()),
		platform.WithDataDir(t.TempDir()),
		platform.WithRegisterer(reg),
	}

	_, err := platform.New(context.Background(), opts...)
	require.NoError(t, err)
	_, err = platform.New(context.Background(), opts...)
	assert.Error(t, err)
}

func TestNewStore_DevSandbox(t *testing.T) {
	st, err := platform.NewStore(context.Background(),
		platform.WithConfig(testConfig()),
		platform.WithDataDir("/definitely/not/writable/arbitra-root"),
	)
	require.NoError(t, err)
	assert.Contains(t, st.Path, platform.DevDirName, "test runs must be re-rooted into the temp directory")
}

func TestNewStore_ReadOnly(t *testing.T) {
	ctx := context.Background()
	st, err := platform.NewStore(ctx,
		platform.WithConfig(testConfig()),
		platform.WithDataDir(t.TempDir()),
		platform.WithReadOnly(true),
	)
	require.NoError(t, err)

	err = st.Append(ctx, "recenttx", 1)
	assert.ErrorIs(t, err, core.ErrReadOnly)
	assert.True(t, st.State().(store.StoreState).ReadOnly)
}

func TestNode_Serve(t *testing.T) {
	node, err := platform.New(context.Background(),
		platform.WithConfig(testConfig()),
		platform.WithDataDir(t.TempDir()),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	servers := node.Servers(true)
	require.Len(t, servers, 2)
	done := make(chan error, 1)
	go func() { done <- node.Serve(ctx, servers...) }()

	addrOf := func(s *integrity.Server) string {
		var addr net.Addr
		require.Eventually(t, func() bool {
			addr = s.Addr()
			return addr != nil
		}, 2*time.Second, 10*time.Millisecond)
		return addr.String()
	}
	msgAddr, oracleAddr := addrOf(servers[0]), addrOf(servers[1])

	reqCtx, reqCancel := context.WithTimeout(ctx, 5*time.Second)
	defer reqCancel()

	tx, err := node.Ledger.NewTransaction("me", "also me", core.NewAmount(12))
	require.NoError(t, err)
	_, err = node.Ledger.Submit(reqCtx, msgAddr, tx)
	require.NoError(t, err)

	// Sender and receiver share a store here, so the transaction is recorded twice.
	history, err := node.Ledger.History(reqCtx)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	digest, err := integrity.NewClient(nil).RequestDigest(reqCtx, oracleAddr, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, integrity.Digest([]byte("abc")), digest)

	cancel()
	select {
	case err := <-done:
		assert.True(t, err == nil || errors.Is(err, context.Canceled), "unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("servers did not stop")
	}
}
