package main

import (
	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
)

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Create, delete, and clone resources",
}

var resourceCreateCmd = &cobra.Command{
	Use:   "create [flags] <id>",
	Short: "Add a resource to the tree",
	Args:  cobra.ExactArgs(1),
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
			return ops.CreateResource(doc, ops.CreateResourceSpec{
				ID:       args[0],
				Name:     name,
				Subtitle: subtitle,
				Parent:   parent,
			})
		})
	},
}

var resourceDeleteCmd = &cobra.Command{
	Use:   "delete [flags] <identifier>",
	Short: "Remove a resource and strip references to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subtree, err := cmd.Flags().GetBool("subtree")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.DeleteResource(doc, args[0], subtree)
		})
	},
}

var resourceCloneCmd = &cobra.Command{
	Use:   "clone [flags] <identifier> <new-id>",
	Short: "Copy a resource under a new id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		parent, err := cmd.Flags().GetString("parent")
		if err != nil {
			return err
		}
		withChildren, err := cmd.Flags().GetBool("with-children")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.CloneResource(doc, ops.CloneResourceSpec{
				ID:           args[0],
				NewID:        args[1],
				NewName:      name,
				NewParent:    parent,
				WithChildren: withChildren,
			})
		})
	},
}

func init() {
	resourceCreateCmd.Flags().String("name", "", "display name")
	resourceCreateCmd.Flags().String("subtitle", "", "subtitle text")
	resourceCreateCmd.Flags().String("parent", "", "parent resource (default top level)")
	addMutationFlags(resourceCreateCmd)

	resourceDeleteCmd.Flags().Bool("subtree", false, "also delete every descendant")
	addMutationFlags(resourceDeleteCmd)

	resourceCloneCmd.Flags().String("name", "", "display name for the clone")
	resourceCloneCmd.Flags().String("parent", "", "parent for the clone (default: next to the source)")
	resourceCloneCmd.Flags().Bool("with-children", false, "copy the subtree too")
	addMutationFlags(resourceCloneCmd)

	resourceCmd.AddCommand(resourceCreateCmd)
	resourceCmd.AddCommand(resourceDeleteCmd)
	resourceCmd.AddCommand(resourceCloneCmd)
}
