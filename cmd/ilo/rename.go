package main

import (
	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
)

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename resources, rewriting references",
}

var renameResourceCmd = &cobra.Command{
	Use:   "resource [flags] <identifier> <new-name>",
	Short: "Change a resource's display name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RenameResource(doc, args[0], args[1])
		})
	},
}

var renameResourceIDCmd = &cobra.Command{
	Use:   "resource-id [flags] <old-id> <new-id>",
	Short: "Change a resource id and rewrite every reference to it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RenameResourceID(doc, args[0], args[1])
		})
	},
}

func init() {
	addMutationFlags(renameResourceCmd)
	addMutationFlags(renameResourceIDCmd)
	renameCmd.AddCommand(renameResourceCmd)
	renameCmd.AddCommand(renameResourceIDCmd)
}
