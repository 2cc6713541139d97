// Package config reads and writes the client's TOML configuration.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the default config location under the home directory.
const FileName = ".skillsync.toml"

// Config is everything the CLI needs between invocations. Token is the last
// login's bearer token; the vault passphrase is never stored anywhere.
type Config struct {
	Server  string `toml:"server"`
	Root    string `toml:"root"`
	Account string `toml:"account"`
	Token   string `toml:"token,omitempty"`
}

// DefaultPath is ~/.skillsync.toml, or the bare filename when the home
// directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, FileName)
}

// Load reads the config at path. A missing file is not an error; it returns
// an empty config so `skillsync init` can create it.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes the config with owner-only permissions; it holds the token.
func Save(path string, c *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
