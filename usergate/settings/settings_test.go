package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeINI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usergate.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, hosts, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	assert.Empty(t, hosts)
}

func TestLoadINI(t *testing.T) {
	path := writeINI(t, `[settings]
sudo = true
journal_dir = /var/lib/usergate
concurrency = 4
log_level = debug
config = /etc/usergate/users.toml

[group1]
host1=127.0.0.1
host2=127.0.0.2

[group2]
host3=127.0.0.3`)

	s, hosts, err := Load(path)
	require.NoError(t, err)

	assert.True(t, s.Sudo)
	assert.False(t, s.JournalGit)
	assert.Equal(t, "/var/lib/usergate", s.JournalDir)
	assert.Equal(t, 4, s.Concurrency)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "/etc/usergate/users.toml", s.Config)
	assert.Equal(t, map[string][]string{
		"group1": {"127.0.0.1", "127.0.0.2"},
		"group2": {"127.0.0.3"},
	}, hosts)
}

func TestLoadEnvOverridesINI(t *testing.T) {
	path := writeINI(t, "[settings]\nconcurrency = 4\nlog_level = debug\n")
	t.Setenv("USERGATE_CONCURRENCY", "2")
	t.Setenv("USERGATE_SUDO", "true")

	s, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Concurrency)
	assert.True(t, s.Sudo)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoadInvalidConcurrency(t *testing.T) {
	t.Setenv("USERGATE_CONCURRENCY", "0")

	_, _, err := Load("")
	assert.ErrorContains(t, err, "concurrency")
}

func TestLoadBadEnvValue(t *testing.T) {
	t.Setenv("USERGATE_SUDO", "maybe")

	_, _, err := Load("")
	assert.ErrorContains(t, err, "parse env")
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}
