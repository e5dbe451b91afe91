package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ilo/internal/diffmt"
	"ilo/internal/ilodoc"
	"ilo/internal/project"
	"ilo/internal/txn"
	"ilo/internal/validate"
)

// addMutationFlags registers the flags every mutating command shares.
func addMutationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")
	cmd.Flags().Bool("dry-run", false, "validate and show the diff without writing")
	cmd.Flags().String("diff", "summary", "diff output (none|summary|full)")
	cmd.Flags().String("mode", "", "validation mode (strict|native, default strict)")
}

// resolveDiagramPath picks the target file from --file or the manifest.
func resolveDiagramPath(cmd *cobra.Command) (string, error) {
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return "", err
	}
	if file != "" {
		return file, nil
	}
	manifest, ok, err := project.Load(".")
	if err != nil {
		return "", err
	}
	if ok {
		if path, ok := manifest.DiagramPath(); ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("no diagram file: pass --file or set [project].diagram in %s", project.ManifestName)
}

func resolveMode(cmd *cobra.Command, fallback validate.Mode) (validate.Mode, error) {
	raw, err := cmd.Flags().GetString("mode")
	if err != nil {
		return fallback, err
	}
	if raw == "" {
		if manifest, ok, err := project.Load("."); err == nil && ok && manifest.Config.Project.Mode != "" {
			raw = manifest.Config.Project.Mode
		}
	}
	if raw == "" {
		return fallback, nil
	}
	mode, ok := validate.ParseMode(raw)
	if !ok {
		return fallback, fmt.Errorf("invalid mode %q (expected strict or native)", raw)
	}
	return mode, nil
}

// runMutation is the shared flow of every mutating command: open a
// transaction, run the steps, then dry-run or commit and report.
func runMutation(cmd *cobra.Command, steps ...func(doc *ilodoc.Document) error) error {
	path, err := resolveDiagramPath(cmd)
	if err != nil {
		return err
	}
	mode, err := resolveMode(cmd, validate.ModeStrict)
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
	diffLevel, err := diffmt.ParseLevel(diffFlag)
	if err != nil {
		return err
	}

	tx, err := txn.Begin(path, mode)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if err := tx.Do(step); err != nil {
			return fmt.Errorf("%s unchanged: %w", path, err)
		}
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

	reportResult(cmd, path, res, diffLevel, dryRun)
	return nil
}

func reportResult(cmd *cobra.Command, path string, res txn.Result, level diffmt.Level, dryRun bool) {
	out := cmd.OutOrStdout()
	if res.Warnings != nil && res.Warnings.HasWarnings() && !quietMode() {
		printFindings(cmd.ErrOrStderr(), path, res.Warnings)
	}
	if !res.Changed {
		if !quietMode() {
			fmt.Fprintf(out, "%s: no changes\n", path)
		}
		return
	}
	switch level {
	case diffmt.LevelFull:
		diffText, err := diffmt.Unified(res.Before, res.After, path, path)
		if err == nil {
			printDiff(out, diffText)
		}
	case diffmt.LevelSummary:
		fmt.Fprintf(out, "%s: %s\n", path, diffmt.Summarize(res.Before, res.After))
	}
	if dryRun {
		fmt.Fprintf(out, "%s\n", dimColor.Sprint("dry run, file not written"))
	} else if !quietMode() && level == diffmt.LevelNone {
		fmt.Fprintf(out, "%s updated\n", path)
	}
}
