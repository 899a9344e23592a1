package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kitforge/gitkit/gitobj"
	"github.com/kitforge/gitkit/refstore"
)

func newUpdateRefCommand(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	var delete bool
	var message string

	cmd := &cobra.Command{
		Use:   "update-ref <ref> [<newvalue>] [<oldvalue>]",
		Short: "Update, compare-and-swap, or delete a reference",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := openRepo(flags.gitDir, log)

			if delete {
				return env.refs.Remove(args[0])
			}
			if len(args) < 2 {
				return gitobj.NewInvalidArgumentError("update-ref: a new value is required unless -d is given")
			}

			newValue, ok := gitobj.FromHex(args[1])
			if !ok {
				return gitobj.NewInvalidArgumentError("not a valid object id: " + args[1])
			}

			meta := refstore.ReflogMeta{Ident: identFromEnv(), Message: message}

			if len(args) == 3 {
				old, ok := gitobj.FromHex(args[2])
				if !ok {
					return gitobj.NewInvalidArgumentError("not a valid object id: " + args[2])
				}
				return env.refs.CompareAndSwap(args[0], &old, newValue, meta)
			}
			return env.refs.Set(args[0], newValue, meta)
		},
	}
	cmd.Flags().BoolVarP(&delete, "delete", "d", false, "delete the reference instead of updating it")
	cmd.Flags().StringVarP(&message, "message", "m", "update-ref", "reflog message")
	return cmd
}
