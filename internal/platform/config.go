package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/arbitra/pkg/integrity"
	"github.com/aretw0/arbitra/pkg/ledger"
	"github.com/aretw0/arbitra/pkg/store"
)

const (
	// DefaultConfigFile is read from the working directory when no path is given.
	DefaultConfigFile = "arbitra.yaml"
	// DefaultEnvFile is loaded into the process environment when present.
	DefaultEnvFile = ".env"
)

// Environment variables that override file configuration.
const (
	EnvDataDir      = "ARBITRA_DATA_DIR"
	EnvNamespace    = "ARBITRA_NAMESPACE"
	EnvOrigin       = "ARBITRA_ORIGIN"
	EnvListen       = "ARBITRA_LISTEN"
	EnvOracleListen = "ARBITRA_ORACLE_LISTEN"
	EnvMaxFrame     = "ARBITRA_MAX_FRAME"
	EnvMaxConns     = "ARBITRA_MAX_CONNECTIONS"
)

// Config is the file and environment configuration of an arbitra node.
type Config struct {
	// DataDir is the application data root. Empty means DefaultDataRoot.
	DataDir        string `yaml:"data_dir"`
	Namespace      string `yaml:"namespace"`
	Origin         string `yaml:"origin"`
	Listen         string `yaml:"listen"`
	OracleListen   string `yaml:"oracle_listen"`
	MaxFrameSize   int    `yaml:"max_frame_size"`
	MaxConnections int    `yaml:"max_connections"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Namespace:      store.DefaultNamespace,
		Origin:         ledger.DefaultOrigin,
		Listen:         integrity.DefaultMessageAddr,
		OracleListen:   integrity.DefaultOracleAddr,
		MaxFrameSize:   integrity.DefaultMaxFrameSize,
		MaxConnections: integrity.DefaultMaxConnections,
	}
}

// LoadConfig layers defaults, the YAML file at path, the .env file and the
// process environment, in that order. An empty path reads DefaultConfigFile
// if it exists; an explicit path must exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv(EnvDataDir, c.DataDir)
	c.Namespace = getEnv(EnvNamespace, c.Namespace)
	c.Origin = getEnv(EnvOrigin, c.Origin)
	c.Listen = getEnv(EnvListen, c.Listen)
	c.OracleListen = getEnv(EnvOracleListen, c.OracleListen)
	c.MaxFrameSize = getEnvInt(EnvMaxFrame, c.MaxFrameSize)
	c.MaxConnections = getEnvInt(EnvMaxConns, c.MaxConnections)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
