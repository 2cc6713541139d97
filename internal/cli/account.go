package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/config"
	"github.com/a14a-org/claudeskill-manager/internal/crypto"
)

var accountPasswdCmd = &cobra.Command{
	Use:   "account-passwd",
	Short: "Change the server account password",
	Long: `Changes the password used to log in to the sync server. This is the
account credential only; the vault passphrase that encrypts skill content is
separate and changed with ` + "`skillsync passwd`" + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := requireClient()
		if err != nil {
			return err
		}

		current, err := promptSecret("Current account password")
		if err != nil {
			return err
		}
		defer crypto.Zero(current)

		next, err := promptNewPassphrase("New account password")
		if err != nil {
			return err
		}
		defer crypto.Zero(next)

		token, err := c.ChangePassword(cmd.Context(), string(current), string(next))
		if err != nil {
			return err
		}

		cfg.Token = token
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		fmt.Println("Account password updated.")
		return nil
	},
}
