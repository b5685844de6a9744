package configuration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelcutops/usergate/usergate/failure"
)

func TestLoadConfig0(t *testing.T) {
	for _, name := range []string{"config0.toml", "config0.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("testdata", name))
			require.NoError(t, err)

			require.Len(t, cfg.Users, 3)
			assert.Equal(t, User{ID: 1001, GroupID: 1001, Name: "_registry", Shell: DefaultShell}, cfg.Users[0])
			assert.Equal(t, User{ID: 1002, GroupID: 1002, Name: "_nexus", Shell: "/bin/sh"}, cfg.Users[1])
			assert.Equal(t, User{ID: 1003, GroupID: 1003, Name: "_jenkins", Shell: DefaultShell}, cfg.Users[2])

			require.Len(t, cfg.Groups, 3)
			assert.Equal(t, "_registry", cfg.Groups[0].Name)
			assert.Equal(t, cfg.Users[0], cfg.Groups[0].Members["_registry"])
			assert.Equal(t, []string{"_jenkins", "_nexus"}, cfg.Groups[2].MemberNames())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"error-user-duplicate-id.toml":   `id 1001 is already used by user "a"`,
		"error-user-duplicate-name.toml": `duplicate user name`,
		"error-user-missing.toml":        `member "nobody" is not a declared user`,
	}

	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", name))
			require.Error(t, err)

			var ferr *failure.Error
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, failure.CodeConfigInvalid, ferr.Code)
			assert.Contains(t, ferr.Cause.Error(), want)
		})
	}
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "error-unknown-key.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "home")
}

func TestLoadCollectsAllProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	content := `
[[users]]
name = "a"
id = 1

[[groups]]
name = ""
id = 2

[[groups]]
name = "g"
members = ["a"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	var ferr *failure.Error
	require.True(t, errors.As(err, &ferr))
	msg := ferr.Cause.Error()
	assert.Contains(t, msg, `user "a": gid is required`)
	assert.Contains(t, msg, `groups[0]: name is required`)
	assert.Contains(t, msg, `group "g": id is required`)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported file extension")
}

func TestLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Users)
	assert.Empty(t, cfg.Groups)
}

func TestGroupEqual(t *testing.T) {
	u := User{ID: 1, GroupID: 1, Name: "u", Shell: DefaultShell}
	a := Group{ID: 1, Name: "g", Members: map[string]User{"u": u}}
	b := Group{ID: 1, Name: "g", Members: map[string]User{"u": u}}
	c := Group{ID: 1, Name: "g", Members: map[string]User{}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, Group{ID: 2, Name: "x"}.Equal(Group{ID: 2, Name: "x", Members: map[string]User{}}))
}
