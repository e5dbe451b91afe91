package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ilo/internal/diffmt"
	"ilo/internal/ilodoc"
	"ilo/internal/opsfile"
	"ilo/internal/project"
	"ilo/internal/txn"
	"ilo/internal/ui"
	"ilo/internal/validate"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags]",
	Short: "Apply an ops file to a diagram in one transaction",
	Long: `Batch reads an ops file, applies every operation to a working copy in
order, validates the result, and replaces the diagram atomically. If any
operation or the final validation fails, the file on disk is untouched.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")
	batchCmd.Flags().String("ops", "ops.yaml", "operations file")
	batchCmd.Flags().Bool("dry-run", false, "validate and show the diff without writing")
	batchCmd.Flags().String("diff", "", "diff output (none|summary|full, default [batch].diff or summary)")
	batchCmd.Flags().String("ui", "", "progress display (auto|on|off, default [batch].ui or auto)")
	batchCmd.Flags().String("mode", "", "validation mode (strict|native, default strict)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	path, err := resolveDiagramPath(cmd)
	if err != nil {
		return err
	}
	mode, err := resolveMode(cmd, validate.ModeStrict)
	if err != nil {
		return err
	}
	opsPath, err := cmd.Flags().GetString("ops")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	diffFlag, err := cmd.Flags().GetString("diff")
	if err != nil {
		return err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	if manifest, ok, err := project.Load("."); err == nil && ok {
		if diffFlag == "" {
			diffFlag = manifest.Config.Batch.Diff
		}
		if uiFlag == "" {
			uiFlag = manifest.Config.Batch.UI
		}
	}
	if diffFlag == "" {
		diffFlag = "summary"
	}
	diffLevel, err := diffmt.ParseLevel(diffFlag)
	if err != nil {
		return err
	}
	ui, err := parseBatchUI(uiFlag)
	if err != nil {
		return err
	}

	file, err := opsfile.Load(opsPath)
	if err != nil {
		return err
	}

	tx, err := txn.Begin(path, mode)
	if err != nil {
		return err
	}

	if ui.wantLive() {
		err = applyOpsWithUI(tx, opsPath, file)
	} else {
		err = applyOps(tx, file, nil)
	}
	if err != nil {
		return fmt.Errorf("%s unchanged: %w", path, err)
	}

	var res txn.Result
	if dryRun {
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

	if !quietMode() {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d op(s) from %s\n", len(file.Ops), opsPath)
	}
	reportResult(cmd, path, res, diffLevel, dryRun)
	return nil
}

// applyOps runs every op through the transaction, reporting progress to
// events when the channel is non-nil.
func applyOps(tx *txn.Tx, file *opsfile.File, events chan<- ui.Event) error {
	emit := func(ev ui.Event) {
		if events != nil {
			events <- ev
		}
	}
	for i, op := range file.Ops {
		applier, ok := op.(opsfile.Applier)
		if !ok {
			return fmt.Errorf("op %d (%s): not applicable", i+1, op.Name())
		}
		emit(ui.Event{Op: op.Name(), Index: i, Status: ui.StatusApplying})
		err := tx.Do(func(doc *ilodoc.Document) error {
			return applier.Apply(doc)
		})
		if err != nil {
			emit(ui.Event{Op: op.Name(), Index: i, Status: ui.StatusError})
			return fmt.Errorf("op %d (%s): %w", i+1, op.Name(), err)
		}
		emit(ui.Event{Op: op.Name(), Index: i, Status: ui.StatusDone})
	}
	emit(ui.Event{Phase: "validating"})
	return nil
}

type batchOutcome struct {
	err error
}

func applyOpsWithUI(tx *txn.Tx, title string, file *opsfile.File) error {
	names := make([]string, len(file.Ops))
	for i, op := range file.Ops {
		names[i] = op.Name()
	}
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		err := applyOps(tx, file, events)
		outcomeCh <- batchOutcome{err: err}
		close(events)
	}()

	uiErr := ui.Run(title, names, events)
	outcome := <-outcomeCh
	if uiErr != nil {
		return uiErr
	}
	return outcome.err
}
