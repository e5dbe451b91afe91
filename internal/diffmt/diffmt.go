// Package diffmt renders the before/after text of a document rewrite as
// a unified diff, plus a compact change summary for dry runs.
package diffmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/pmezard/go-difflib/difflib"
)

// Level controls how much diff output a command prints.
type Level int

const (
	LevelNone Level = iota
	LevelSummary
	LevelFull
)

// ParseLevel maps a flag value to a Level.
func ParseLevel(value string) (Level, error) {
	switch value {
	case "none":
		return LevelNone, nil
	case "summary":
		return LevelSummary, nil
	case "full":
		return LevelFull, nil
	}
	return LevelNone, fmt.Errorf("invalid diff level: %s (expected none, summary, or full)", value)
}

// Summary counts the line-level changes of a rewrite.
type Summary struct {
	Added    uint32
	Deleted  uint32
	Sections []string
}

// Changed reports whether the rewrite touched anything.
func (s Summary) Changed() bool { return s.Added > 0 || s.Deleted > 0 }

func (s Summary) String() string {
	if !s.Changed() {
		return "no changes"
	}
	out := fmt.Sprintf("+%d -%d lines", s.Added, s.Deleted)
	if len(s.Sections) > 0 {
		out += " (" + strings.Join(s.Sections, ", ") + ")"
	}
	return out
}

// Unified renders a unified diff between the before and after text.
func Unified(before, after, fromFile, toFile string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("render diff: %w", err)
	}
	return text, nil
}

// Summarize counts added and deleted lines and names the top-level
// sections the change touches.
func Summarize(before, after string) Summary {
	matcher := difflib.NewMatcher(difflib.SplitLines(before), difflib.SplitLines(after))
	beforeLines := difflib.SplitLines(before)

	var summary Summary
	sections := make(map[string]bool)
	var sectionOrder []string
	for _, opcode := range matcher.GetOpCodes() {
		if opcode.Tag == 'e' {
			continue
		}
		if deleted, err := safecast.Conv[uint32](opcode.I2 - opcode.I1); err == nil {
			summary.Deleted += deleted
		}
		if added, err := safecast.Conv[uint32](opcode.J2 - opcode.J1); err == nil {
			summary.Added += added
		}
		if section := sectionAt(beforeLines, opcode.I1); section != "" && !sections[section] {
			sections[section] = true
			sectionOrder = append(sectionOrder, section)
		}
	}
	summary.Sections = sectionOrder
	return summary
}

// sectionAt walks back to the nearest top-level key above the line.
func sectionAt(lines []string, idx int) string {
	if idx >= len(lines) {
		idx = len(lines) - 1
	}
	for i := idx; i >= 0; i-- {
		line := strings.TrimRight(lines[i], "\r\n")
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "#") {
			continue
		}
		if colon := strings.IndexByte(line, ':'); colon > 0 {
			return line[:colon]
		}
	}
	return ""
}
