package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kitforge/gitkit/gitobj"
)

func newIndexPackCommand(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index-pack <packfile>",
		Short: "Ingest a pack file's objects into the repository's object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packBytes, err := os.ReadFile(args[0])
			if err != nil {
				return gitobj.WrapBackend(err)
			}

			env := openRepo(flags.gitDir, log)
			result, err := env.store.IngestPack(packBytes, env.compression)
			if err != nil {
				return err
			}

			fmt.Printf("%s\n%d objects\n", result.Checksum.String(), result.ObjectCount)
			return nil
		},
	}
	return cmd
}
