package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
	"ilo/internal/yamlio"
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage perspective overrides",
}

var overrideLsCmd = &cobra.Command{
	Use:   "ls [flags] [perspective]",
	Short: "List overrides of one or every perspective",
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
		rows, err := ops.ListOverrides(doc, perspective)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, row := range rows {
			line := fmt.Sprintf("%-20s %-20s", row.Perspective, row.ResourceID)
			if row.ParentID != "" {
				line += " parentId=" + row.ParentID
			}
			if row.HasScale {
				line += fmt.Sprintf(" scale=%g", row.Scale)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

// overrideSpecFromFlags collects only the flags the user set.
func overrideSpecFromFlags(cmd *cobra.Command) (ops.OverrideSpec, error) {
	var spec ops.OverrideSpec
	if cmd.Flags().Changed("parent-id") {
		value, err := cmd.Flags().GetString("parent-id")
		if err != nil {
			return spec, err
		}
		spec.ParentID = value
	}
	if cmd.Flags().Changed("scale") {
		value, err := cmd.Flags().GetFloat64("scale")
		if err != nil {
			return spec, err
		}
		spec.Scale = value
		spec.HasScale = true
	}
	return spec, nil
}

var overrideAddCmd = &cobra.Command{
	Use:   "add [flags] <perspective> <resource-id>",
	Short: "Add an override row for a resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := overrideSpecFromFlags(cmd)
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.AddOverride(doc, args[0], args[1], spec)
		})
	},
}

var overrideEditCmd = &cobra.Command{
	Use:   "edit [flags] <perspective> <resource-id>",
	Short: "Change or clear fields on an override row",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := overrideSpecFromFlags(cmd)
		if err != nil {
			return err
		}
		clear, err := cmd.Flags().GetStringSlice("clear")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.EditOverride(doc, args[0], args[1], spec, clear)
		})
	},
}

var overrideRemoveCmd = &cobra.Command{
	Use:   "remove [flags] <perspective> <resource-id>",
	Short: "Remove an override row",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RemoveOverride(doc, args[0], args[1])
		})
	},
}

func init() {
	overrideLsCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")

	overrideAddCmd.Flags().String("parent-id", "", "reparent the resource in this perspective")
	overrideAddCmd.Flags().Float64("scale", 0, "scale factor for the resource")
	addMutationFlags(overrideAddCmd)

	overrideEditCmd.Flags().String("parent-id", "", "reparent the resource in this perspective")
	overrideEditCmd.Flags().Float64("scale", 0, "scale factor for the resource")
	overrideEditCmd.Flags().StringSlice("clear", nil, "field(s) to remove (parentId|scale)")
	addMutationFlags(overrideEditCmd)

	addMutationFlags(overrideRemoveCmd)

	overrideCmd.AddCommand(overrideLsCmd)
	overrideCmd.AddCommand(overrideAddCmd)
	overrideCmd.AddCommand(overrideEditCmd)
	overrideCmd.AddCommand(overrideRemoveCmd)
}
