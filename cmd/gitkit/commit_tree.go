package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/gitobj/objects"
)

func newCommitTreeCommand(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	var parents []string
	var message string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree>",
		Short: "Create a commit object from a tree and zero or more parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, ok := gitobj.FromHex(args[0])
			if !ok {
				return gitobj.NewInvalidArgumentError("not a valid tree id: " + args[0])
			}

			parentIDs := make([]gitobj.ObjectID, 0, len(parents))
			for _, p := range parents {
				id, ok := gitobj.FromHex(p)
				if !ok {
					return gitobj.NewInvalidArgumentError("not a valid parent id: " + p)
				}
				parentIDs = append(parentIDs, id)
			}

			who := identFromEnv()
			commit := &objects.Commit{
				TreeID:    treeID,
				ParentIDs: parentIDs,
				Author:    who,
				Committer: who,
				Message:   message,
			}

			obj, err := commit.EncodeObject()
			if err != nil {
				return err
			}

			env := openRepo(flags.gitDir, log)
			id, err := env.objects.WriteBytes(gitobj.CommitObject, obj.Bytes())
			if err != nil {
				return err
			}
			fmt.Println(id.String())
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit id (repeatable)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

// identFromEnv builds a PersonIdent from GIT_AUTHOR_NAME/GIT_AUTHOR_EMAIL,
// falling back to "gitkit" / "gitkit@localhost", stamped with the current
// time at offset +0000.
func identFromEnv() gitobj.PersonIdent {
	name := os.Getenv("GIT_AUTHOR_NAME")
	if name == "" {
		name = "gitkit"
	}
	email := os.Getenv("GIT_AUTHOR_EMAIL")
	if email == "" {
		email = "gitkit@localhost"
	}
	return gitobj.PersonIdent{
		Name:      name,
		Email:     email,
		Timestamp: time.Now().Unix(),
		TZOffset:  "+0000",
	}
}
