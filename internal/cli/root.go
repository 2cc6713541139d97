// Package cli wires the skillsync command tree. Commands stay thin: they
// prompt, call into keyring/sync/remote, and print; no crypto or sync policy
// lives here.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/a14a-org/claudeskill-manager/internal/config"
	logger "github.com/a14a-org/claudeskill-manager/internal/logging"
)

var (
	cfgPath string
	verbose bool
	debug   bool
	log     logger.Logger

	rootCmd = &cobra.Command{
		Use:   "skillsync",
		Short: "Sync encrypted skills across machines",
		Long: `skillsync keeps a directory of commands, skills and agents in sync
through a server that only ever sees ciphertext. Content is encrypted with a
key derived from your passphrase before anything leaves this machine.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logger.Logger{Verbose: verbose, Debug: debug}
			if cfgPath == "" {
				cfgPath = config.DefaultPath()
			}
			log.Debugf("using config %s", cfgPath)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(accountPasswdCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
