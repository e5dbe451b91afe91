package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
	"ilo/internal/yamlio"
)

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Add, edit, and remove perspective relations",
}

// relationPayloadFlags registers the relation field flags shared by add
// and edit.
func relationPayloadFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "source reference")
	cmd.Flags().String("to", "", "target reference")
	cmd.Flags().String("via", "", "intermediate reference")
	cmd.Flags().String("label", "", "edge label")
	cmd.Flags().String("description", "", "edge description")
	cmd.Flags().String("arrow-direction", "", "arrow direction (forward|backward|bidirectional)")
	cmd.Flags().String("color", "", "edge color")
	cmd.Flags().Bool("secondary", false, "mark the relation secondary")
}

// relationPayloadFromFlags collects only the flags the user actually
// set, so edit can distinguish "leave alone" from "set empty".
func relationPayloadFromFlags(cmd *cobra.Command) (ops.RelationPayload, error) {
	payload := ops.RelationPayload{}
	for flag, field := range map[string]string{
		"from":            "from",
		"to":              "to",
		"via":             "via",
		"label":           "label",
		"description":     "description",
		"arrow-direction": "arrowDirection",
		"color":           "color",
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		value, err := cmd.Flags().GetString(flag)
		if err != nil {
			return nil, err
		}
		payload[field] = value
	}
	if cmd.Flags().Changed("secondary") {
		value, err := cmd.Flags().GetBool("secondary")
		if err != nil {
			return nil, err
		}
		payload["secondary"] = value
	}
	return payload, nil
}

var relationLsCmd = &cobra.Command{
	Use:   "ls [flags] [perspective]",
	Short: "List relations, optionally filtered by field values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		perspectiveID := ""
		if len(args) == 1 {
			perspectiveID = args[0]
		}
		match, err := relationPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		path, err := resolveDiagramPath(cmd)
		if err != nil {
			return err
		}
		doc, _, err := yamlio.Load(path)
		if err != nil {
			return err
		}
		rows, err := ops.ListRelations(doc, perspectiveID, match)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, row := range rows {
			line := fmt.Sprintf("%s[%d]", row.Perspective, row.Index)
			for _, key := range []string{"from", "to", "via", "label", "description", "arrowDirection", "color", "secondary"} {
				value, ok := row.Fields[key]
				if !ok {
					continue
				}
				line += " " + dimColor.Sprintf("%s=", key) + fmt.Sprint(value)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

var relationAddCmd = &cobra.Command{
	Use:   "add [flags] <perspective>",
	Short: "Append a relation to a perspective",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := relationPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.AddRelation(doc, args[0], payload)
		})
	},
}

var relationRemoveCmd = &cobra.Command{
	Use:   "remove [flags] <perspective> <index>",
	Short: "Remove a relation by its 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index1, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RemoveRelation(doc, args[0], index1)
		})
	},
}

var relationEditCmd = &cobra.Command{
	Use:   "edit [flags] <perspective> <index>",
	Short: "Change or clear fields on a relation by its 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index1, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		payload, err := relationPayloadFromFlags(cmd)
		if err != nil {
			return err
		}
		clear, err := cmd.Flags().GetStringSlice("clear")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.EditRelation(doc, args[0], index1, ops.RelationEdit{
				Set:   payload,
				Clear: clear,
			})
		})
	},
}

func init() {
	relationLsCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")
	relationPayloadFlags(relationLsCmd)

	relationPayloadFlags(relationAddCmd)
	addMutationFlags(relationAddCmd)

	addMutationFlags(relationRemoveCmd)

	relationPayloadFlags(relationEditCmd)
	relationEditCmd.Flags().StringSlice("clear", nil, "field(s) to remove from the relation")
	addMutationFlags(relationEditCmd)

	relationCmd.AddCommand(relationLsCmd)
	relationCmd.AddCommand(relationAddCmd)
	relationCmd.AddCommand(relationRemoveCmd)
	relationCmd.AddCommand(relationEditCmd)
}
