package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbitra/internal/platform"
	"github.com/aretw0/arbitra/pkg/integrity"
	"github.com/aretw0/arbitra/pkg/store"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := platform.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, platform.DefaultConfig(), cfg)
	assert.Equal(t, store.DefaultNamespace, cfg.Namespace)
	assert.Equal(t, integrity.DefaultMessageAddr, cfg.Listen)
	assert.Equal(t, integrity.DefaultOracleAddr, cfg.OracleListen)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := "data_dir: /srv/arbitra\nnamespace: node-a\nlisten: 127.0.0.1:9001\nmax_frame_size: 2048\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, platform.DefaultConfigFile), []byte(content), 0o644))

	cfg, err := platform.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/arbitra", cfg.DataDir)
	assert.Equal(t, "node-a", cfg.Namespace)
	assert.Equal(t, "127.0.0.1:9001", cfg.Listen)
	assert.Equal(t, 2048, cfg.MaxFrameSize)
	assert.Equal(t, integrity.DefaultOracleAddr, cfg.OracleListen, "unset keys keep defaults")
}

func TestLoadConfig_ExplicitFileMustExist(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := platform.LoadConfig("missing.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o644))

	_, err := platform.LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, platform.DefaultConfigFile), []byte("namespace: from-file\n"), 0o644))

	t.Setenv(platform.EnvNamespace, "from-env")
	t.Setenv(platform.EnvMaxFrame, "4096")
	t.Setenv(platform.EnvMaxConns, "8")
	t.Setenv(platform.EnvOracleListen, "127.0.0.1:9999")

	cfg, err := platform.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Namespace)
	assert.Equal(t, 4096, cfg.MaxFrameSize)
	assert.Equal(t, 8, cfg.MaxConnections)
	assert.Equal(t, "127.0.0.1:9999", cfg.OracleListen)
}

func TestLoadConfig_InvalidIntKeepsDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(platform.EnvMaxFrame, "lots")

	cfg, err := platform.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, integrity.DefaultMaxFrameSize, cfg.MaxFrameSize)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	if _, set := os.LookupEnv(platform.EnvOrigin); set {
		t.Skipf("%s already set in the environment", platform.EnvOrigin)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, platform.DefaultEnvFile), []byte("ARBITRA_ORIGIN=10.1.1.1\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv(platform.EnvOrigin) })

	cfg, err := platform.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", cfg.Origin)
}
