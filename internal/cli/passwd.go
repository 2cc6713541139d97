package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/crypto"
	"github.com/a14a-org/claudeskill-manager/internal/keyring"
)

var passwdUseRecovery bool

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the vault passphrase",
	Long: `Rewraps the master key under a new passphrase. No skill content is
re-encrypted and the recovery key keeps working. With --recovery the current
passphrase is not needed; the recovery key unlocks the master key instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, c, err := requireClient()
		if err != nil {
			return err
		}

		master, kr, err := unlockMaster(ctx, c, passwdUseRecovery)
		if err != nil {
			return err
		}
		defer crypto.Zero(master)

		next, err := promptNewPassphrase("New vault passphrase")
		if err != nil {
			return err
		}
		defer crypto.Zero(next)

		wrapped, err := keyring.Rewrap(master, next, kr.Salt, kr.KDF())
		if err != nil {
			return err
		}
		kr.Wrapped = wrapped
		if err := c.PutKeyring(ctx, kr); err != nil {
			return err
		}
		fmt.Println("Passphrase updated.")
		return nil
	},
}

func init() {
	passwdCmd.Flags().BoolVar(&passwdUseRecovery, "recovery", false, "unlock with the recovery key instead of the current passphrase")
}
