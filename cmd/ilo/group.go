package main

import (
	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group resources under a shared parent",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create [flags] <id> <member>...",
	Short: "Create a resource and move the members under it",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		subtitle, err := cmd.Flags().GetString("subtitle")
		if err != nil {
			return err
		}
		parent, err := cmd.Flags().GetString("parent")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.CreateGroup(doc, ops.CreateGroupSpec{
				ID:       args[0],
				Name:     name,
				Subtitle: subtitle,
				Parent:   parent,
				Members:  args[1:],
			})
		})
	},
}

var groupMoveManyCmd = &cobra.Command{
	Use:   "move-many [flags] <new-parent> <identifier>...",
	Short: "Move several resources under one parent",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.MoveMany(doc, args[1:], args[0])
		})
	},
}

func init() {
	groupCreateCmd.Flags().String("name", "", "display name for the group")
	groupCreateCmd.Flags().String("subtitle", "", "subtitle text")
	groupCreateCmd.Flags().String("parent", "", "parent for the group itself (default top level)")
	addMutationFlags(groupCreateCmd)
	addMutationFlags(groupMoveManyCmd)
	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupMoveManyCmd)
}
