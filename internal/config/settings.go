// Package config loads the gcl settings file.
//
// Settings live in .gitreview files: a global one in the user's home
// directory and an optional per-checkout one found by walking up from the
// working directory. The per-checkout file overrides the global one. The
// format is an INI file with a [gerrit] section:
//
//	[gerrit]
//	host = https://gerrit.example.com
//	username = jdoe
//	password = s3cret
//	token = ...   # bearer token, used instead of username/password when set
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Filename is the name of the settings file
const Filename = ".gitreview"

const section = "gerrit"

// Settings holds the review server connection settings.
// It is passed explicitly into the gerrit client constructor;
// nothing in gcl reads credentials from ambient process state.
type Settings struct {
	Host     string
	Username string
	Password string
	Token    string
}

// HasAuth reports whether any credentials are configured
func (s *Settings) HasAuth() bool {
	return s.Token != "" || (s.Username != "" && s.Password != "")
}

// Validate checks that the settings are usable
func (s *Settings) Validate() error {
	if s.Host == "" {
		return fmt.Errorf("no gerrit host configured: add a [gerrit] host entry to %s", Filename)
	}
	return nil
}

// Load reads the global settings file and the nearest per-checkout one,
// starting the upward search at dir. Missing files are not an error.
func Load(dir string) (*Settings, error) {
	settings := &Settings{}

	if home, err := os.UserHomeDir(); err == nil {
		if err := applyFile(settings, filepath.Join(home, Filename)); err != nil {
			return nil, err
		}
	}

	local, err := findLocal(dir)
	if err != nil {
		return nil, err
	}
	if local != "" {
		if err := applyFile(settings, local); err != nil {
			return nil, err
		}
	}

	return settings, nil
}

// LoadFile reads a single settings file, failing if it does not exist.
func LoadFile(path string) (*Settings, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot read settings: %w", err)
	}
	settings := &Settings{}
	if err := applyFile(settings, path); err != nil {
		return nil, err
	}
	return settings, nil
}

// applyFile merges the [gerrit] section of path into settings.
// A missing file is ignored; a malformed one is an error.
func applyFile(settings *Settings, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	sec := file.Section(section)
	if v := sec.Key("host").String(); v != "" {
		settings.Host = v
	}
	if v := sec.Key("username").String(); v != "" {
		settings.Username = v
	}
	if v := sec.Key("password").String(); v != "" {
		settings.Password = v
	}
	if v := sec.Key("token").String(); v != "" {
		settings.Token = v
	}

	return nil
}

// findLocal walks up from dir looking for a settings file, stopping at the
// filesystem root. Returns "" when none is found.
func findLocal(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, Filename)
		// The global file is handled separately so it is not applied twice
		if candidate != filepath.Join(home, Filename) {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
