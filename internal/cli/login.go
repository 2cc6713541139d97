package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/config"
	"github.com/a14a-org/claudeskill-manager/internal/crypto"
	"github.com/a14a-org/claudeskill-manager/internal/remote"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Refresh the server session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Server == "" || cfg.Account == "" {
			return errNotConfigured
		}

		password, err := promptSecret("Account password")
		if err != nil {
			return err
		}
		defer crypto.Zero(password)

		c := remote.New(cfg.Server, "")
		token, err := c.Login(cmd.Context(), cfg.Account, string(password))
		if err != nil {
			return err
		}

		cfg.Token = token
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", cfg.Account)
		return nil
	},
}
