// Package settings loads tool settings from an INI file and the environment.
package settings

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"gopkg.in/ini.v1"
)

// SettingsSection is the INI section holding tool settings. Every other
// section is a host group whose values are host names.
const SettingsSection = "settings"

type Settings struct {
	Sudo        bool   `ini:"sudo" env:"USERGATE_SUDO"`
	JournalDir  string `ini:"journal_dir" env:"USERGATE_JOURNAL_DIR"`
	JournalGit  bool   `ini:"journal_git" env:"USERGATE_JOURNAL_GIT"`
	Concurrency int    `ini:"concurrency" env:"USERGATE_CONCURRENCY"`
	LogLevel    string `ini:"log_level" env:"USERGATE_LOG_LEVEL"`
	Config      string `ini:"config" env:"USERGATE_CONFIG"`
}

func Default() Settings {
	return Settings{
		Concurrency: 10,
		LogLevel:    "info",
	}
}

// Load returns the default settings overlaid with the INI file at path (if
// path is not empty) and then with the environment, along with the host
// groups declared in the file.
func Load(path string) (Settings, map[string][]string, error) {
	s := Default()
	hosts := map[string][]string{}

	if path != "" {
		cfg, err := ini.Load(path)
		if err != nil {
			return s, nil, fmt.Errorf("load %s: %w", path, err)
		}

		if cfg.HasSection(SettingsSection) {
			if err := cfg.Section(SettingsSection).MapTo(&s); err != nil {
				return s, nil, fmt.Errorf("section [%s] of %s: %w", SettingsSection, path, err)
			}
		}
		hosts = hostGroups(cfg)
	}

	if err := env.Parse(&s); err != nil {
		return s, nil, fmt.Errorf("parse env: %w", err)
	}

	if s.Concurrency < 1 {
		return s, nil, fmt.Errorf("concurrency must be at least 1, got %d", s.Concurrency)
	}
	return s, hosts, nil
}

func hostGroups(cfg *ini.File) map[string][]string {
	hosts := make(map[string][]string)

	for _, section := range cfg.Sections() {
		name := section.Name()
		if name == SettingsSection {
			continue
		}
		for _, key := range section.Keys() {
			hosts[name] = append(hosts[name], key.String())
		}
	}

	return hosts
}
