package cli

import (
	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/crypto"
	"github.com/a14a-org/claudeskill-manager/internal/sync"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download and decrypt skills that changed remotely",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := requireClient()
		if err != nil {
			return err
		}

		master, _, err := unlockMaster(cmd.Context(), c, false)
		if err != nil {
			return err
		}
		defer crypto.Zero(master)

		ix, err := sync.LoadIndex(cfg.Root)
		if err != nil {
			return err
		}
		r := &sync.Reconciler{Root: cfg.Root, Remote: c}
		res, err := r.Pull(cmd.Context(), master, ix)
		if err != nil {
			return err
		}
		reportResult("pulled", res.Pulled, res)
		return nil
	},
}
