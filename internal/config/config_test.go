package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andycostintoma/httpx/internal/stream"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 30*time.Second, cfg.Server.HeaderTimeout)
	require.True(t, cfg.Client.AutoRedirect)
	require.Equal(t, 5, cfg.Client.MaxRedirects)
	require.Equal(t, 5*time.Second, cfg.Client.Timeout)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "httpx.yaml")
	yamlContent := `
server:
  addr: ":9090"
  header_timeout: 10s
  backpressure: suspend
client:
  max_redirects: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, 10*time.Second, cfg.Server.HeaderTimeout)
	require.Equal(t, stream.Suspend, cfg.Server.BackpressurePolicy())
	require.Equal(t, 2, cfg.Client.MaxRedirects)
	// untouched by the file, should retain its default
	require.True(t, cfg.Client.AutoRedirect)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "httpx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":8080\"\n"), 0644))

	t.Setenv("HTTPX_SERVER_ADDR", ":3000")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.Server.Addr)
}

func TestBackpressurePolicyDefaultsToDrop(t *testing.T) {
	cfg := ServerConfig{Backpressure: "bogus"}
	require.Equal(t, stream.DropWhenFull, cfg.BackpressurePolicy())
}
