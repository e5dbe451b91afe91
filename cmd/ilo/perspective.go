package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
	"ilo/internal/yamlio"
)

var perspectiveCmd = &cobra.Command{
	Use:     "perspective",
	Aliases: []string{"persp"},
	Short:   "Manage perspectives",
}

var perspectiveLsCmd = &cobra.Command{
	Use:   "ls [flags]",
	Short: "List perspectives",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDiagramPath(cmd)
		if err != nil {
			return err
		}
		doc, _, err := yamlio.Load(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, info := range ops.ListPerspectives(doc) {
			line := info.Identifier
			if info.Name != "" && info.Name != info.Identifier {
				line += " " + dimColor.Sprintf("(%s)", info.Name)
			}
			if len(info.Extends) > 0 {
				line += " extends " + strings.Join(info.Extends, ", ")
			}
			if info.Hidden {
				line += " " + dimColor.Sprint("[hidden]")
			}
			fmt.Fprintf(out, "%s  %s\n", line, dimColor.Sprintf("%d relation(s)", info.Relations))
		}
		return nil
	},
}

var perspectiveCreateCmd = &cobra.Command{
	Use:   "create [flags] <id>",
	Short: "Add an empty perspective",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		extends, err := cmd.Flags().GetString("extends")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.CreatePerspective(doc, args[0], name, extends)
		})
	},
}

var perspectiveRenameCmd = &cobra.Command{
	Use:   "rename [flags] <old-id> <new-id>",
	Short: "Change a perspective id, rewriting extends chains",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RenamePerspective(doc, args[0], args[1])
		})
	},
}

var perspectiveDeleteCmd = &cobra.Command{
	Use:   "delete [flags] <id>",
	Short: "Remove a perspective",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.DeletePerspective(doc, args[0], force)
		})
	},
}

var perspectiveCopyCmd = &cobra.Command{
	Use:   "copy [flags] <id> <new-id>",
	Short: "Duplicate a perspective under a new id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.CopyPerspective(doc, args[0], args[1])
		})
	},
}

var perspectiveReorderCmd = &cobra.Command{
	Use:   "reorder [flags] <id> <position>",
	Short: "Move a perspective to a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.ReorderPerspective(doc, args[0], position)
		})
	},
}

func init() {
	perspectiveLsCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")

	perspectiveCreateCmd.Flags().String("name", "", "display name")
	perspectiveCreateCmd.Flags().String("extends", "", "comma-separated perspective ids to extend")
	addMutationFlags(perspectiveCreateCmd)

	addMutationFlags(perspectiveRenameCmd)

	perspectiveDeleteCmd.Flags().Bool("force", false, "also detach perspectives that extend this one")
	addMutationFlags(perspectiveDeleteCmd)

	addMutationFlags(perspectiveCopyCmd)
	addMutationFlags(perspectiveReorderCmd)

	perspectiveCmd.AddCommand(perspectiveLsCmd)
	perspectiveCmd.AddCommand(perspectiveCreateCmd)
	perspectiveCmd.AddCommand(perspectiveRenameCmd)
	perspectiveCmd.AddCommand(perspectiveDeleteCmd)
	perspectiveCmd.AddCommand(perspectiveCopyCmd)
	perspectiveCmd.AddCommand(perspectiveReorderCmd)
}
