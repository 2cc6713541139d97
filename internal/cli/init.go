package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/config"
	"github.com/a14a-org/claudeskill-manager/internal/crypto"
	"github.com/a14a-org/claudeskill-manager/internal/keyring"
	"github.com/a14a-org/claudeskill-manager/internal/remote"
	"github.com/a14a-org/claudeskill-manager/internal/storage"
)

var (
	initServer  string
	initRoot    string
	initAccount string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up this machine: account, vault passphrase, skill root",
	Long: `Creates the account on the server if needed, provisions the encrypted
keyring on first use, and writes the local config. On an account that already
has a keyring (a second machine), init only verifies the passphrase and saves
the config.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initServer, "server", "", "sync server base URL")
	initCmd.Flags().StringVar(&initRoot, "root", "", "skill root directory")
	initCmd.Flags().StringVar(&initAccount, "account", "", "account name")
	_ = initCmd.MarkFlagRequired("server")
	_ = initCmd.MarkFlagRequired("account")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	root := initRoot
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		root = filepath.Join(home, ".claude")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	c := remote.New(initServer, "")
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	password, err := promptSecret("Account password")
	if err != nil {
		return err
	}
	defer crypto.Zero(password)

	// Create the account, or fall through to login when it already exists.
	if err := c.Signup(ctx, initAccount, string(password)); err != nil {
		var rerr *remote.Error
		if !errors.As(err, &rerr) || rerr.Status != http.StatusConflict {
			return err
		}
		log.Infof("account %s exists, logging in", initAccount)
	} else {
		log.Infof("account %s created", initAccount)
	}
	token, err := c.Login(ctx, initAccount, string(password))
	if err != nil {
		return err
	}

	// First machine provisions the keyring; later machines only prove they
	// can unlock it.
	if _, err := c.GetKeyring(ctx); err != nil {
		var rerr *remote.Error
		if !errors.As(err, &rerr) || !rerr.NotFound() {
			return err
		}
		if err := provisionKeyring(cmd, c); err != nil {
			return err
		}
	} else {
		master, _, err := unlockMaster(ctx, c, false)
		if err != nil {
			return err
		}
		crypto.Zero(master)
		log.Infof("existing keyring unlocked")
	}

	cfg := &config.Config{
		Server:  initServer,
		Root:    root,
		Account: initAccount,
		Token:   token,
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	fmt.Printf("Initialized. Skills root: %s\n", root)
	return nil
}

func provisionKeyring(cmd *cobra.Command, c *remote.Client) error {
	passphrase, err := promptNewPassphrase("New vault passphrase")
	if err != nil {
		return err
	}
	defer crypto.Zero(passphrase)

	mat, err := keyring.Setup(passphrase)
	if err != nil {
		return err
	}
	defer crypto.Zero(mat.MasterKey)

	kr := storage.Keyring{
		Salt:            mat.Salt,
		Wrapped:         mat.Wrapped,
		RecoveryWrapped: mat.RecoveryWrapped,
	}
	kr.SetKDF(mat.KDF)
	if err := c.PutKeyring(cmd.Context(), kr); err != nil {
		return err
	}

	// The recovery key exists only in this output. It is the sole way back
	// in after a forgotten passphrase.
	fmt.Println()
	fmt.Println("Your recovery key. Write it down and store it offline;")
	fmt.Println("it will never be shown again:")
	fmt.Println()
	fmt.Printf("    %s\n\n", color.New(color.Bold).Sprint(mat.Recovery.Format()))
	return nil
}
