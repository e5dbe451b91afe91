package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
	"ilo/internal/yamlio"
)

var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Manage perspective aliases",
}

var aliasLsCmd = &cobra.Command{
	Use:   "ls [flags] [perspective]",
	Short: "List aliases of one or every perspective",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDiagramPath(cmd)
		if err != nil {
			return err
		}
		doc, _, err := yamlio.Load(path)
		if err != nil {
			return err
		}
		perspective := ""
		if len(args) == 1 {
			perspective = args[0]
		}
		rows, err := ops.ListAliases(doc, perspective)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, row := range rows {
			fmt.Fprintf(out, "%-20s %-20s %s\n", row.Perspective, row.Alias, row.For)
		}
		return nil
	},
}

var aliasAddCmd = &cobra.Command{
	Use:   "add [flags] <perspective> <alias> <for>",
	Short: "Add an alias row to a perspective",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.AddAlias(doc, args[0], args[1], args[2])
		})
	},
}

var aliasEditCmd = &cobra.Command{
	Use:   "edit [flags] <perspective> <alias> <for>",
	Short: "Change what an alias points at",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.EditAlias(doc, args[0], args[1], args[2])
		})
	},
}

var aliasRemoveCmd = &cobra.Command{
	Use:   "remove [flags] <perspective> <alias>",
	Short: "Remove an alias row",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RemoveAlias(doc, args[0], args[1])
		})
	},
}

func init() {
	aliasLsCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")
	addMutationFlags(aliasAddCmd)
	addMutationFlags(aliasEditCmd)
	addMutationFlags(aliasRemoveCmd)
	aliasCmd.AddCommand(aliasLsCmd)
	aliasCmd.AddCommand(aliasAddCmd)
	aliasCmd.AddCommand(aliasEditCmd)
	aliasCmd.AddCommand(aliasRemoveCmd)
}
