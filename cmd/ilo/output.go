package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"ilo/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
	addColor     = color.New(color.FgGreen)
	delColor     = color.New(color.FgRed)
)

// applyColorMode honors the --color persistent flag before any command
// writes output.
func applyColorMode() {
	mode, err := rootCmd.PersistentFlags().GetString("color")
	if err != nil {
		return
	}
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
}

func quietMode() bool {
	quiet, err := rootCmd.PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}

func maxFindings() int {
	n, err := rootCmd.PersistentFlags().GetInt("max-findings")
	if err != nil || n <= 0 {
		return 512
	}
	return n
}

func severityTag(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return errorColor.Sprint("error")
	case diag.SevWarning:
		return warningColor.Sprint("warning")
	default:
		return infoColor.Sprint("info")
	}
}

// printFindings renders a bag one finding per line, capped by the
// --max-findings flag.
func printFindings(out io.Writer, file string, bag *diag.Bag) {
	limit := maxFindings()
	for i, f := range bag.Items() {
		if i >= limit {
			fmt.Fprintf(out, "%s\n", dimColor.Sprintf("... and %d more finding(s)", bag.Len()-limit))
			break
		}
		location := file
		if f.Path != "" {
			location += ":" + f.Path
		}
		fmt.Fprintf(out, "%s: %s [%s] %s\n", severityTag(f.Severity), dimColor.Sprint(location), f.Code.ID(), f.Message)
	}
}

// printDiff writes a unified diff with +/- lines colored.
func printDiff(out io.Writer, diffText string) {
	for _, line := range strings.SplitAfter(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			fmt.Fprint(out, addColor.Sprint(line))
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			fmt.Fprint(out, delColor.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(out, infoColor.Sprint(line))
		default:
			fmt.Fprint(out, line)
		}
	}
}
