package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kitforge/gitkit/gitobj"
)

func newHashObjectCommand(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	var typeName string
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object [file]",
		Short: "Compute the object id of a file's content, optionally storing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := gitobj.ParseObjectType(typeName)
			if err != nil {
				return err
			}

			content, err := readInput(args)
			if err != nil {
				return err
			}

			if !write {
				id := gitobj.HashObject(t, content)
				fmt.Println(id.String())
				return nil
			}

			env := openRepo(flags.gitDir, log)
			id, err := env.objects.WriteBytes(t, content)
			if err != nil {
				return err
			}
			fmt.Println(id.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "blob", "object type (blob, tree, commit, tag)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the repository's object store")
	return cmd
}

// readInput reads args[0], or stdin if args is empty or args[0] is "-".
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}
