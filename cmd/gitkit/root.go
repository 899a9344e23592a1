package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flags every subcommand reads through
// openRepo, mirroring go-git's own cli/go-git root command (one shared
// --git-dir rather than each subcommand re-declaring it).
type globalFlags struct {
	gitDir  string
	verbose bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	log := logrus.New()

	root := &cobra.Command{
		Use:           "gitkit",
		Short:         "Plumbing-only access to a gitkit repository",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&flags.gitDir, "git-dir", ".git", "path to the repository's git directory")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newHashObjectCommand(flags, log),
		newCatFileCommand(flags, log),
		newLsTreeCommand(flags, log),
		newCommitTreeCommand(flags, log),
		newUpdateRefCommand(flags, log),
		newPackObjectsCommand(flags, log),
		newIndexPackCommand(flags, log),
	)
	return root
}
