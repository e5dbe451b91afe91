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

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage contexts",
}

var contextLsCmd = &cobra.Command{
	Use:   "ls [flags]",
	Short: "List contexts",
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
		for _, info := range ops.ListContexts(doc) {
			line := info.Name
			if len(info.Extends) > 0 {
				line += " extends " + strings.Join(info.Extends, ", ")
			}
			if info.Hidden {
				line += " " + dimColor.Sprint("[hidden]")
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var contextCreateCmd = &cobra.Command{
	Use:   "create [flags] <name>",
	Short: "Add a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extends, err := cmd.Flags().GetString("extends")
		if err != nil {
			return err
		}
		hidden, err := cmd.Flags().GetBool("hidden")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.CreateContext(doc, args[0], extends, hidden)
		})
	},
}

var contextRenameCmd = &cobra.Command{
	Use:   "rename [flags] <old-name> <new-name>",
	Short: "Rename a context, rewriting extends chains",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RenameContext(doc, args[0], args[1])
		})
	},
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete [flags] <name>",
	Short: "Remove a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.DeleteContext(doc, args[0], force)
		})
	},
}

var contextCopyCmd = &cobra.Command{
	Use:   "copy [flags] <name> <new-name>",
	Short: "Copy a context under a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.CopyContext(doc, args[0], args[1])
		})
	},
}

var contextReorderCmd = &cobra.Command{
	Use:   "reorder [flags] <name> <position>",
	Short: "Move a context to a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q (expected a 1-based integer)", args[1])
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.ReorderContext(doc, args[0], position)
		})
	},
}

var contextSetCmd = &cobra.Command{
	Use:   "set [flags] <name> <field> <value>",
	Short: "Set a context field",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.SetContextField(doc, args[0], args[1], args[2])
		})
	},
}

var contextUnsetCmd = &cobra.Command{
	Use:   "unset [flags] <name> <field>",
	Short: "Remove a context field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.UnsetContextField(doc, args[0], args[1])
		})
	},
}

func init() {
	contextLsCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")

	contextCreateCmd.Flags().String("extends", "", "context to extend")
	contextCreateCmd.Flags().Bool("hidden", false, "hide the context from the selector")
	addMutationFlags(contextCreateCmd)

	addMutationFlags(contextRenameCmd)
	addMutationFlags(contextCopyCmd)
	addMutationFlags(contextReorderCmd)

	contextDeleteCmd.Flags().Bool("force", false, "also detach contexts that extend this one")
	addMutationFlags(contextDeleteCmd)

	addMutationFlags(contextSetCmd)
	addMutationFlags(contextUnsetCmd)

	contextCmd.AddCommand(contextLsCmd)
	contextCmd.AddCommand(contextCreateCmd)
	contextCmd.AddCommand(contextRenameCmd)
	contextCmd.AddCommand(contextDeleteCmd)
	contextCmd.AddCommand(contextCopyCmd)
	contextCmd.AddCommand(contextReorderCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextUnsetCmd)
}
