package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/a14a-org/claudeskill-manager/internal/config"
	"github.com/a14a-org/claudeskill-manager/internal/crypto"
	"github.com/a14a-org/claudeskill-manager/internal/keyring"
	"github.com/a14a-org/claudeskill-manager/internal/remote"
	"github.com/a14a-org/claudeskill-manager/internal/storage"
)

var errNotConfigured = errors.New("not configured; run `skillsync init` first")

func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}

// requireClient loads the config and builds an authenticated client from it.
func requireClient() (*config.Config, *remote.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Server == "" || cfg.Account == "" {
		return nil, nil, errNotConfigured
	}
	if cfg.Token == "" {
		return nil, nil, errors.New("not logged in; run `skillsync login`")
	}
	return cfg, remote.New(cfg.Server, cfg.Token), nil
}

// promptSecret reads a line with echo off when stdin is a terminal, falling
// back to plain reads for piped input.
func promptSecret(label string) ([]byte, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return b, err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// promptLine reads a whole line; recovery keys may be typed with spaces.
func promptLine(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptNewPassphrase asks twice and insists the entries match.
func promptNewPassphrase(label string) ([]byte, error) {
	first, err := promptSecret(label)
	if err != nil {
		return nil, err
	}
	second, err := promptSecret(label + " (again)")
	if err != nil {
		crypto.Zero(first)
		return nil, err
	}
	defer crypto.Zero(second)
	if string(first) != string(second) {
		crypto.Zero(first)
		return nil, errors.New("passphrases do not match")
	}
	if len(first) == 0 {
		crypto.Zero(first)
		return nil, errors.New("passphrase must not be empty")
	}
	return first, nil
}

// unlockMaster fetches the account keyring and unwraps the master key with a
// prompted passphrase, or with recovery words when useRecovery is set. The
// caller must Zero the returned key.
func unlockMaster(ctx context.Context, c *remote.Client, useRecovery bool) ([]byte, storage.Keyring, error) {
	kr, err := c.GetKeyring(ctx)
	if err != nil {
		return nil, storage.Keyring{}, fmt.Errorf("fetch keyring: %w", err)
	}

	if useRecovery {
		words, err := promptLine("Recovery key")
		if err != nil {
			return nil, storage.Keyring{}, err
		}
		master, err := keyring.UnlockWithRecovery(words, kr.Salt, kr.RecoveryWrapped, kr.KDF())
		if err != nil {
			return nil, storage.Keyring{}, err
		}
		return master, kr, nil
	}

	passphrase, err := promptSecret("Passphrase")
	if err != nil {
		return nil, storage.Keyring{}, err
	}
	defer crypto.Zero(passphrase)

	master, err := keyring.Unlock(passphrase, kr.Salt, kr.Wrapped, kr.KDF())
	if err != nil {
		return nil, storage.Keyring{}, err
	}
	return master, kr, nil
}
