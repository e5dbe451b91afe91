package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
)

var sequenceCmd = &cobra.Command{
	Use:     "sequence",
	Aliases: []string{"seq"},
	Short:   "Manage perspective sequences",
}

// sequenceStepFlags registers the step field flags shared by add and
// edit.
func sequenceStepFlags(cmd *cobra.Command) {
	cmd.Flags().String("to", "", "step target")
	cmd.Flags().String("to-and-back", "", "round-trip step target")
	cmd.Flags().String("to-async", "", "asynchronous step target")
	cmd.Flags().String("restart-at", "", "restart the sequence at this reference")
	cmd.Flags().String("label", "", "step label")
	cmd.Flags().String("description", "", "step description")
	cmd.Flags().String("color", "", "step color")
}

// sequenceStepFromFlags collects only the flags the user set.
func sequenceStepFromFlags(cmd *cobra.Command) (ops.SequenceStep, error) {
	step := ops.SequenceStep{}
	for flag, field := range map[string]string{
		"to":          "to",
		"to-and-back": "toAndBack",
		"to-async":    "toAsync",
		"restart-at":  "restartAt",
		"label":       "label",
		"description": "description",
		"color":       "color",
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		value, err := cmd.Flags().GetString(flag)
		if err != nil {
			return nil, err
		}
		step[field] = value
	}
	return step, nil
}

var sequenceSetStartCmd = &cobra.Command{
	Use:   "set-start [flags] <perspective> <start>",
	Short: "Set (or create) a perspective's sequence start",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.SetSequenceStart(doc, args[0], args[1])
		})
	},
}

var sequenceStepCmd = &cobra.Command{
	Use:   "step",
	Short: "Manage sequence steps",
}

var sequenceStepAddCmd = &cobra.Command{
	Use:   "add [flags] <perspective>",
	Short: "Append or insert a sequence step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := sequenceStepFromFlags(cmd)
		if err != nil {
			return err
		}
		position, err := cmd.Flags().GetInt("position")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.AddSequenceStep(doc, args[0], step, position)
		})
	},
}

var sequenceStepEditCmd = &cobra.Command{
	Use:   "edit [flags] <perspective> <index>",
	Short: "Change or clear fields of a step by its 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index1, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		step, err := sequenceStepFromFlags(cmd)
		if err != nil {
			return err
		}
		clear, err := cmd.Flags().GetStringSlice("clear")
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.EditSequenceStep(doc, args[0], index1, step, clear)
		})
	},
}

var sequenceStepRemoveCmd = &cobra.Command{
	Use:   "remove [flags] <perspective> <index>",
	Short: "Remove a step by its 1-based index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index1, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.RemoveSequenceStep(doc, args[0], index1)
		})
	},
}

var sequenceClearCmd = &cobra.Command{
	Use:   "clear [flags] <perspective>",
	Short: "Remove a perspective's whole sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(doc *ilodoc.Document) error {
			return ops.ClearSequence(doc, args[0])
		})
	},
}

func init() {
	addMutationFlags(sequenceSetStartCmd)

	sequenceStepFlags(sequenceStepAddCmd)
	sequenceStepAddCmd.Flags().Int("position", 0, "1-based insert position (0 appends)")
	addMutationFlags(sequenceStepAddCmd)

	sequenceStepFlags(sequenceStepEditCmd)
	sequenceStepEditCmd.Flags().StringSlice("clear", nil, "field(s) to remove from the step")
	addMutationFlags(sequenceStepEditCmd)

	addMutationFlags(sequenceStepRemoveCmd)
	addMutationFlags(sequenceClearCmd)

	sequenceStepCmd.AddCommand(sequenceStepAddCmd)
	sequenceStepCmd.AddCommand(sequenceStepEditCmd)
	sequenceStepCmd.AddCommand(sequenceStepRemoveCmd)

	sequenceCmd.AddCommand(sequenceSetStartCmd)
	sequenceCmd.AddCommand(sequenceStepCmd)
	sequenceCmd.AddCommand(sequenceClearCmd)
}
