package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/historystore"
	"github.com/kitforge/gitkit/idxfile"
)

func newPackObjectsCommand(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack-objects <basename>",
		Short: "Pack the objects named on stdin (one hex id per line) into <basename>.pack/.idx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			basename := args[0]
			env := openRepo(flags.gitDir, log)

			var objs []historystore.PackObject
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := scanner.Text()
				if line == "" {
					continue
				}
				id, ok := gitobj.FromHex(line)
				if !ok {
					return gitobj.NewInvalidArgumentError("not a valid object id: " + line)
				}
				hdr, content, err := env.objects.LoadBytes(id)
				if err != nil {
					return err
				}
				objs = append(objs, historystore.PackObject{ID: id, Type: hdr.Type, Content: content})
			}
			if err := scanner.Err(); err != nil {
				return gitobj.WrapBackend(err)
			}

			result, err := env.store.WritePack(objs, env.compression)
			if err != nil {
				return err
			}

			if err := os.WriteFile(basename+".pack", result.PackBytes, 0o644); err != nil {
				return gitobj.WrapBackend(err)
			}

			idxFile, err := os.Create(basename + ".idx")
			if err != nil {
				return gitobj.WrapBackend(err)
			}
			defer idxFile.Close()
			if err := idxfile.Encode(idxFile, result.IndexEntries, result.Checksum); err != nil {
				return err
			}

			fmt.Println(result.Checksum.String())
			return nil
		},
	}
	return cmd
}
