package main

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
)

func newLsTreeCommand(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls-tree <tree-or-commit>",
		Short: "List a tree object's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := gitobj.FromHex(args[0])
			if !ok {
				return gitobj.NewInvalidArgumentError("not a valid object id: " + args[0])
			}

			env := openRepo(flags.gitDir, log)

			hdr, content, err := env.objects.LoadBytes(id)
			if err != nil {
				return err
			}
			if hdr.Type == gitobj.CommitObject {
				commit, err := objects.DecodeCommit(bytes.NewReader(content))
				if err != nil {
					return err
				}
				_, content, err = env.objects.LoadBytes(commit.TreeID)
				if err != nil {
					return err
				}
			}

			tree, err := objects.DecodeTree(bytes.NewReader(content))
			if err != nil {
				return err
			}
			return printTreeEntries(tree)
		},
	}
	return cmd
}

// entryTypeName returns the object type name a tree entry's mode implies,
// matching `git ls-tree`'s own column.
func entryTypeName(mode gitobj.FileMode) string {
	switch mode {
	case gitobj.Dir:
		return gitobj.TreeObject.String()
	case gitobj.Submodule:
		return gitobj.CommitObject.String()
	default:
		return gitobj.BlobObject.String()
	}
}

// printTreeEntries prints "<mode> <type> <id>\t<name>" for each of t's
// entries, in the tree's stored (canonical) order.
func printTreeEntries(t *objects.Tree) error {
	for _, e := range t.Entries {
		fmt.Printf("%06s %s %s\t%s\n", e.Mode.String(), entryTypeName(e.Mode), e.ID.String(), e.Name)
	}
	return nil
}
