package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ilo/internal/impact"
	"ilo/internal/yamlio"
)

var impactCmd = &cobra.Command{
	Use:   "impact [flags] <resource-id>",
	Short: "List every place a resource id is referenced",
	Long:  `Impact walks the resource tree, perspective fields, and context strings and prints each site that mentions the id. Run it before a rename or delete to see the blast radius.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImpact,
}

func init() {
	impactCmd.Flags().StringP("file", "f", "", "diagram file (default: [project].diagram from ilo.toml)")
	impactCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type impactRow struct {
	Perspective string `json:"perspective,omitempty"`
	Section     string `json:"section"`
	Path        string `json:"path,omitempty"`
	Field       string `json:"field"`
	Value       string `json:"value"`
}

func runImpact(cmd *cobra.Command, args []string) error {
	path, err := resolveDiagramPath(cmd)
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

	hits := impact.ForResource(doc, args[0])
	out := cmd.OutOrStdout()

	switch strings.ToLower(format) {
	case "json":
		rows := make([]impactRow, 0, len(hits))
		for _, h := range hits {
			rows = append(rows, impactRow(h))
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "pretty":
		if len(hits) == 0 {
			if !quietMode() {
				fmt.Fprintf(out, "no references to %q\n", args[0])
			}
			return nil
		}
		for _, h := range hits {
			where := h.Section
			if h.Perspective != "" {
				where = fmt.Sprintf("%s %q", h.Section, h.Perspective)
			}
			if h.Path != "" {
				where += " " + dimColor.Sprint(h.Path)
			}
			fmt.Fprintf(out, "%-40s %-12s %s\n", where, h.Field, h.Value)
		}
		if !quietMode() {
			fmt.Fprintf(out, "%d reference(s) to %q\n", len(hits), args[0])
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}
