package main

import (
	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move resources within the tree",
}

var moveResourceCmd = &cobra.Command{
	Use:   "resource [flags] <identifier> <new-parent>",
	Short: "Reparent a resource (use \"none\" or \"^\" for the top level)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inheritStyle, err := cmd.Flags().GetBool("inherit-style-from-parent")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.MoveResourceStyled(doc, args[0], args[1], inheritStyle)
		})
	},
}

func init() {
	moveResourceCmd.Flags().Bool("inherit-style-from-parent", false, "drop the resource's own style so the new parent's applies")
	addMutationFlags(moveResourceCmd)
	moveCmd.AddCommand(moveResourceCmd)
}
