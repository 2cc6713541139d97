package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/skill"
	"github.com/a14a-org/claudeskill-manager/internal/sync"
)

var statusShowRefs bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which skills are synced, changed locally, or new remotely",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := requireClient()
		if err != nil {
			return err
		}

		ix, err := sync.LoadIndex(cfg.Root)
		if err != nil {
			return err
		}
		r := &sync.Reconciler{Root: cfg.Root, Remote: c}
		st, err := r.Status(cmd.Context(), ix)
		if err != nil {
			return err
		}

		printKeys(color.GreenString("synced"), st.Synced)
		printKeys(color.YellowString("pending push"), st.PendingPush)
		printKeys(color.CyanString("pending pull"), st.PendingPull)
		if len(st.PendingPush) == 0 && len(st.PendingPull) == 0 {
			fmt.Println("Everything up to date.")
		}

		if statusShowRefs {
			return printRefs(cfg.Root)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusShowRefs, "refs", false, "show cross-references between skills")
}

func printKeys(label string, keys []string) {
	for _, k := range keys {
		fmt.Printf("  %-14s %s\n", label, k)
	}
}

// printRefs lists /slash-references between local skills, informational
// only; sync ignores them.
func printRefs(root string) error {
	local, err := skill.LoadAll(root)
	if err != nil {
		return err
	}
	known := make([]string, 0, len(local))
	for _, s := range local {
		known = append(known, s.Key.Name)
	}
	for _, s := range local {
		if refs := skill.Refs(s.Body, known); len(refs) > 0 {
			fmt.Printf("  %s references %v\n", s.Key, refs)
		}
	}
	return nil
}
