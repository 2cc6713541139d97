package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/crypto"
	"github.com/a14a-org/claudeskill-manager/internal/sync"
)

var pushMessage string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Encrypt and upload changed skills",
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
		r := &sync.Reconciler{Root: cfg.Root, Remote: c, Message: pushMessage}
		res, err := r.Push(cmd.Context(), master, ix)
		if err != nil {
			return err
		}
		reportResult("pushed", res.Pushed, res)
		return nil
	},
}

func init() {
	pushCmd.Flags().StringVarP(&pushMessage, "message", "m", "", "version message")
}

func reportResult(verb string, moved int, res *sync.Result) {
	fmt.Printf("%d %s, %d unchanged\n", moved, verb, res.Skipped)
	for _, e := range res.Errors {
		log.Errorf("%s: %v", e.Key, e.Err)
	}
	if len(res.Errors) > 0 {
		log.Warnf("%d skill(s) failed; the rest completed", len(res.Errors))
	}
}
