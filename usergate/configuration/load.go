package configuration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/steelcutops/usergate/usergate/failure"
)

type fileConfig struct {
	Users  []fileUser  `toml:"users" yaml:"users"`
	Groups []fileGroup `toml:"groups" yaml:"groups"`
}

type fileUser struct {
	Name  string  `toml:"name" yaml:"name"`
	ID    *uint32 `toml:"id" yaml:"id"`
	GID   *uint32 `toml:"gid" yaml:"gid"`
	Shell string  `toml:"shell" yaml:"shell"`
}

type fileGroup struct {
	Name    string   `toml:"name" yaml:"name"`
	ID      *uint32  `toml:"id" yaml:"id"`
	Members []string `toml:"members" yaml:"members"`
}

// Load reads, validates and resolves the configuration file at path. The
// format is chosen by extension: .toml, .yaml or .yml.
func Load(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("load configuration: %w", err)
	}

	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		raw, err = decodeTOML(data)
	case ".yaml", ".yml":
		raw, err = decodeYAML(data)
	default:
		return Configuration{}, fmt.Errorf("load configuration: unsupported file extension %q", ext)
	}
	if err != nil {
		return Configuration{}, fmt.Errorf("load configuration %s: %w", path, err)
	}

	cfg, err := resolve(raw)
	if err != nil {
		return Configuration{}, failure.New(
			failure.CodeConfigInvalid,
			"Configuration is invalid.",
			"File", path,
		).WithCause(err).
			WithRemediation("Fix the listed problems in the configuration file.")
	}
	return cfg, nil
}

func decodeTOML(data []byte) (fileConfig, error) {
	var raw fileConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return fileConfig{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fileConfig{}, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return raw, nil
}

func decodeYAML(data []byte) (fileConfig, error) {
	var raw fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}
	return raw, nil
}
