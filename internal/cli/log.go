package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/skill"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log <type>:<name>",
	Short: "Show a skill's version history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := skill.ParseKey(args[0])
		if err != nil {
			return err
		}
		_, c, err := requireClient()
		if err != nil {
			return err
		}

		vs, err := c.ListVersions(cmd.Context(), key.String(), logLimit)
		if err != nil {
			return err
		}
		if len(vs) == 0 {
			fmt.Printf("no versions for %s\n", key)
			return nil
		}
		for _, v := range vs {
			line := color.YellowString(skill.ShortHash(v.Hash))
			if v.Parent != "" {
				line += " <- " + skill.ShortHash(v.Parent)
			}
			line += "  " + v.CreatedAt.Local().Format("2006-01-02 15:04")
			if v.Message != "" {
				line += "  " + v.Message
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "max versions to show")
}
