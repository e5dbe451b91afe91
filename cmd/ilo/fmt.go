package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ilo/internal/diffmt"
	"ilo/internal/txn"
	"ilo/internal/validate"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags]",
	Short: "Rewrite a diagram through the stable formatter",
	Long:  `Fmt re-emits the diagram through the canonical writer. Sequence indents and unquoted reference brackets are preserved, so a second run is a no-op.`,
	RunE:  runFmt,
}

func init() {
	fmtCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")
	fmtCmd.Flags().Bool("check", false, "exit non-zero if the file is not canonically formatted")
	fmtCmd.Flags().Bool("stdout", false, "print the formatted document instead of writing the file")
	fmtCmd.Flags().String("mode", "", "validation mode (strict|native, default strict)")
}

func runFmt(cmd *cobra.Command, args []string) error {
	path, err := resolveDiagramPath(cmd)
	if err != nil {
		return err
	}
	mode, err := resolveMode(cmd, validate.ModeStrict)
	if err != nil {
		return err
	}
	checkOnly, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}

	tx, err := txn.Begin(path, mode)
	if err != nil {
		return err
	}

	var res txn.Result
	if checkOnly || toStdout {
		res, err = tx.DryRun()
	} else {
		res, err = tx.Commit()
	}
	if err != nil {
		if ve, ok := txn.AsValidationError(err); ok {
			printFindings(cmd.ErrOrStderr(), path, ve.Bag)
			return fmt.Errorf("%s unchanged: %v", path, err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if toStdout {
		fmt.Fprint(out, res.After)
		return nil
	}
	if checkOnly {
		if res.Changed {
			return fmt.Errorf("%s: not formatted (%s)", path, diffmt.Summarize(res.Before, res.After))
		}
		if !quietMode() {
			fmt.Fprintf(out, "%s: formatted\n", path)
		}
		return nil
	}
	if !quietMode() {
		if res.Changed {
			fmt.Fprintf(out, "%s: %s\n", path, diffmt.Summarize(res.Before, res.After))
		} else {
			fmt.Fprintf(out, "%s: no changes\n", path)
		}
	}
	return nil
}
