package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ilo/internal/resolve"
	"ilo/internal/yamlio"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <reference>",
	Short: "Explain how a reference expression maps to resources",
	Long:  `Resolve splits a reference into components and reports what each token binds to: a resource, an alias, a special token, or nothing.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")
	resolveCmd.Flags().String("perspective", "", "perspective id for alias lookup")
	resolveCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type resolveRow struct {
	Part    string `json:"part"`
	Token   string `json:"token"`
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
	Fatal   bool   `json:"fatal"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	path, err := resolveDiagramPath(cmd)
	if err != nil {
		return err
	}
	perspective, err := cmd.Flags().GetString("perspective")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	doc, _, err := yamlio.Load(path)
	if err != nil {
		return err
	}

	rows := resolve.Reference(doc, args[0], perspective)
	fatal := 0
	jsonRows := make([]resolveRow, 0, len(rows))
	for _, row := range rows {
		if row.Fatal() {
			fatal++
		}
		details := row.Details
		if details == "-" {
			details = ""
		}
		jsonRows = append(jsonRows, resolveRow{
			Part:    row.Part,
			Token:   row.Token,
			Status:  string(row.Status),
			Details: details,
			Fatal:   row.Fatal(),
		})
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonRows); err != nil {
			return err
		}
	case "pretty":
		for _, row := range rows {
			status := string(row.Status)
			if row.Fatal() {
				status = errorColor.Sprint(status)
			} else {
				status = infoColor.Sprint(status)
			}
			fmt.Fprintf(out, "%-24s %-20s %-14s %s\n", row.Part, row.Token, status, row.Details)
		}
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	if fatal > 0 {
		return fmt.Errorf("%d unresolved token(s) in %q", fatal, args[0])
	}
	return nil
}
