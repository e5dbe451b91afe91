package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ilo/internal/cache"
	"ilo/internal/diag"
	"ilo/internal/project"
	"ilo/internal/validate"
	"ilo/internal/yamlio"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file...]",
	Short: "Validate Ilograph diagram files",
	Long:  `Check parses each diagram and reports structural and reference findings. With no arguments, [check].files from ilo.toml is used.`,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("mode", "", "validation mode (strict|native, default strict)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	checkCmd.Flags().Bool("no-cache", false, "skip the per-file index cache")
}

type fileReport struct {
	File     string        `json:"file"`
	Findings []jsonFinding `json:"findings"`
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`

	bag *diag.Bag
}

type jsonFinding struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Path        string `json:"path,omitempty"`
	Perspective string `json:"perspective,omitempty"`
	Message     string `json:"message"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	mode, err := resolveMode(cmd, validate.ModeStrict)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		manifest, ok, err := project.Load(".")
		if err != nil {
			return err
		}
		if ok {
			files = manifest.CheckFiles()
			if len(files) == 0 {
				if path, ok := manifest.DiagramPath(); ok {
					files = []string{path}
				}
			}
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to check: pass paths or configure [check].files in %s", project.ManifestName)
	}

	var diskCache *cache.DiskCache
	if !noCache {
		// Cache failures degrade to a full re-check, never to an error.
		diskCache, _ = cache.Open("ilo")
	}

	// Each goroutine writes its own slot, so no lock is needed.
	reports := make([]fileReport, len(files))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			report, err := checkOne(file, mode, diskCache)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.SliceStable(reports, func(a, b int) bool { return reports[a].File < reports[b].File })

	totalErrors := 0
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
		for _, r := range reports {
			totalErrors += r.Errors
		}
	default:
		for _, r := range reports {
			printFindings(cmd.OutOrStdout(), r.File, r.bag)
			totalErrors += r.Errors
			if !quietMode() {
				status := "ok"
				if r.Errors > 0 {
					status = errorColor.Sprintf("%d error(s)", r.Errors)
				} else if r.Warnings > 0 {
					status = warningColor.Sprintf("%d warning(s)", r.Warnings)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.File, status)
			}
		}
	}

	if totalErrors > 0 {
		return fmt.Errorf("%d error(s) across %d file(s)", totalErrors, len(files))
	}
	return nil
}

func checkOne(file string, mode validate.Mode, diskCache *cache.DiskCache) (fileReport, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fileReport{}, err
	}
	digest := cache.DigestOf(raw)
	if diskCache != nil {
		var cached cache.IndexPayload
		if hit, _ := diskCache.Get(digest, &cached); hit && cached.Clean {
			// Same bytes validated clean on a previous run.
			return fileReport{File: file, bag: diag.NewBag(0)}, nil
		}
	}

	doc, err := yamlio.Parse(string(raw))
	if err != nil {
		return fileReport{}, fmt.Errorf("%s: %w", file, err)
	}
	bag := validate.Document(doc, mode)
	bag.Sort()
	bag.Dedup()

	report := fileReport{File: file, bag: bag}
	for _, f := range bag.Items() {
		report.Findings = append(report.Findings, jsonFinding{
			Severity:    f.Severity.String(),
			Code:        f.Code.ID(),
			Path:        f.Path,
			Perspective: f.Perspective,
			Message:     f.Message,
		})
		switch f.Severity {
		case diag.SevError:
			report.Errors++
		case diag.SevWarning:
			report.Warnings++
		}
	}

	if diskCache != nil {
		payload := cache.BuildIndexPayload(doc, report.Errors > 0)
		payload.Clean = mode == validate.ModeStrict && bag.Len() == 0
		_ = diskCache.Put(digest, payload)
	}
	return report, nil
}
