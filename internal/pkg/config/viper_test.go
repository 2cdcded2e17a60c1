package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  server:
    cors: "https://a.example, ,https://b.example"
database:
  url: postgres://localhost/twofa
  pool:
    max_conns: 8
modules:
  twofa:
    enabled: true
    window_radius: 2
mfa:
  secret: AAECAw==
  bad: "%%%"
jwt:
  ttl_minutes: 15
  audiences:
    - twofa
    - " "
    - billing
http:
  read_timeout_seconds: 5
`

func TestNewViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML), WithDefaults(map[string]any{
		"modules.twofa.code_length": 6,
		"modules.twofa.window_radius": 1,
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	assert.Equal(t, "postgres://localhost/twofa", cfg.GetString("database.url"))
	assert.Equal(t, int32(8), cfg.GetInt32("database.pool.max_conns"))
	assert.True(t, cfg.GetBool("modules.twofa.enabled"))
	assert.Equal(t, uint(2), cfg.GetUint("modules.twofa.window_radius"), "file value wins over default")
	assert.Equal(t, 6, cfg.GetInt("modules.twofa.code_length"), "default applies when key is absent")
	assert.Equal(t, []byte{0, 1, 2, 3}, cfg.GetBinary("mfa.secret"))
	assert.Nil(t, cfg.GetBinary("mfa.bad"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"twofa", "billing"}, cfg.GetArray("jwt.audiences"))
	assert.Empty(t, cfg.GetArray("missing.key"))
	assert.Equal(t, 15*time.Minute, cfg.GetMinute("jwt.ttl_minutes"))
	assert.Equal(t, 5*time.Second, cfg.GetSecond("http.read_timeout_seconds"))
}

func TestNewViperFromBytes_EnvOverride(t *testing.T) {
	t.Setenv("TWOFA_DATABASE_URL", "postgres://override/twofa")

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "postgres://override/twofa", cfg.GetString("database.url"))
}

func TestNewViperFromBytes_MissingType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(sampleYAML))
	assert.Error(t, err)
}

func TestNewViper_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sampleYAML), 0o600))

	cfg, err := NewViper(file)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/twofa", cfg.GetString("database.url"))

	_, err = NewViper(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
