package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFile_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	require.Equal(t, DefaultCacheArguments(), cfg.CacheArguments)
	require.Equal(t, DefaultProtocolMajor, cfg.ProtocolVersion)
	require.Empty(t, cfg.LogFile)
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := `
cacheArguments:
  - -DFOO=bar
protocolVersion: 2
logFile: /tmp/client.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	require.Equal(t, []string{"-DFOO=bar"}, cfg.CacheArguments)
	require.Equal(t, 2, cfg.ProtocolVersion)
	require.Equal(t, "/tmp/client.log", cfg.LogFile)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cacheArguments: {nope"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
}
