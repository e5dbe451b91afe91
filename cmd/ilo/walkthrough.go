package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
	"ilo/internal/yamlio"
)

var walkthroughCmd = &cobra.Command{
	Use:   "walkthrough",
	Short: "Manage perspective walkthroughs",
}

// walkthroughSlideFlags registers the slide field flags shared by add
// and edit. Flag names match the document keys except zoomTo.
func walkthroughSlideFlags(cmd *cobra.Command) {
	cmd.Flags().String("text", "", "slide text (markdown)")
	cmd.Flags().String("select", "", "resources to select")
	cmd.Flags().String("expand", "", "resources to expand")
	cmd.Flags().String("hide", "", "resources to hide")
	cmd.Flags().String("focus", "", "resources to focus")
	cmd.Flags().String("highlight", "", "resources to highlight")
	cmd.Flags().String("include", "", "relations to include")
	cmd.Flags().String("exclude", "", "relations to exclude")
	cmd.Flags().String("root", "", "root resource for the slide")
	cmd.Flags().String("center", "", "resource to center on")
	cmd.Flags().String("zoom-to", "", "resources to zoom to")
}

// walkthroughSlideFromFlags collects only the flags the user set.
func walkthroughSlideFromFlags(cmd *cobra.Command) (ops.WalkthroughSlide, error) {
	slide := ops.WalkthroughSlide{}
	for flag, field := range map[string]string{
		"text":      "text",
		"select":    "select",
		"expand":    "expand",
		"hide":      "hide",
		"focus":     "focus",
		"highlight": "highlight",
		"include":   "include",
		"exclude":   "exclude",
		"root":      "root",
		"center":    "center",
		"zoom-to":   "zoomTo",
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		value, err := cmd.Flags().GetString(flag)
		if err != nil {
			return nil, err
		}
		slide[field] = value
	}
	return slide, nil
}

var walkthroughLsCmd = &cobra.Command{
	Use:   "ls [flags] <perspective>",
	Short: "List walkthrough slides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDiagramPath(cmd)
		if err != nil {
			return err
		}
		doc, _, err := yamlio.Load(path)
		if err != nil {
			return err
		}
		rows, err := ops.ListWalkthrough(doc, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, row := range rows {
			line := fmt.Sprintf("%3d  %s", row.Index, row.Text)
			if row.Select != "" {
				line += " " + dimColor.Sprintf("select: %s", row.Select)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var walkthroughAddCmd = &cobra.Command{
	Use:   "add [flags] <perspective>",
	Short: "Append or insert a walkthrough slide",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slide, err := walkthroughSlideFromFlags(cmd)
		if err != nil {
			return err
		}
		position, err := cmd.Flags().GetInt("position")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.AddWalkthroughSlide(doc, args[0], slide, position)
		})
	},
}

var walkthroughEditCmd = &cobra.Command{
	Use:   "edit [flags] <perspective> <index>",
	Short: "Change or clear fields of a slide by its 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index1, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		slide, err := walkthroughSlideFromFlags(cmd)
		if err != nil {
			return err
		}
		clear, err := cmd.Flags().GetStringSlice("clear")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.EditWalkthroughSlide(doc, args[0], index1, slide, clear)
		})
	},
}

var walkthroughRemoveCmd = &cobra.Command{
	Use:   "remove [flags] <perspective> <index>",
	Short: "Remove a slide by its 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index1, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RemoveWalkthroughSlide(doc, args[0], index1)
		})
	},
}

func init() {
	walkthroughLsCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")

	walkthroughSlideFlags(walkthroughAddCmd)
	walkthroughAddCmd.Flags().Int("position", 0, "1-based insert position (0 appends)")
	addMutationFlags(walkthroughAddCmd)

	walkthroughSlideFlags(walkthroughEditCmd)
	walkthroughEditCmd.Flags().StringSlice("clear", nil, "field(s) to remove from the slide")
	addMutationFlags(walkthroughEditCmd)

	addMutationFlags(walkthroughRemoveCmd)

	walkthroughCmd.AddCommand(walkthroughLsCmd)
	walkthroughCmd.AddCommand(walkthroughAddCmd)
	walkthroughCmd.AddCommand(walkthroughEditCmd)
	walkthroughCmd.AddCommand(walkthroughRemoveCmd)
}
