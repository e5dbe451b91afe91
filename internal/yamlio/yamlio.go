// Package yamlio reads and writes Ilograph diagram files while keeping
// the author's formatting intact: comments, key order, quoting, and
// top-level sequence indentation survive a load/dump round trip.
package yamlio

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
)

// referenceKeys are the scalar fields whose values Ilograph treats as
// reference expressions. Unquoted `[...]` values under these keys are
// YAML flow sequences to a parser, so they get quoted before parsing
// and unquoted again after dumping.
var referenceKeys = map[string]bool{
	"from":       true,
	"to":         true,
	"via":        true,
	"resourceId": true,
	"parentId":   true,
	"for":        true,
	"select":     true,
	"focus":      true,
	"highlight":  true,
	"include":    true,
	"exclude":    true,
	"root":       true,
	"center":     true,
	"zoomTo":     true,
	"expand":     true,
	"hide":       true,
	"start":      true,
	"toAndBack":  true,
	"toAsync":    true,
	"restartAt":  true,
}

var (
	keyValueLineRe       = regexp.MustCompile(`^(\s*(?:-\s*)?)([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(\[[^\n#]*\])(\s*(?:#.*)?)$`)
	quotedKeyValueLineRe = regexp.MustCompile(`^(\s*(?:-\s*)?)([A-Za-z_][A-Za-z0-9_]*)\s*:\s*'(\[[^'\n#]*\])'(\s*(?:#.*)?)$`)
	topLevelKeyLineRe    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)\s*:\s*(?:#.*)?$`)
	topLevelKeyPrefixRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*\s*:`)
	sequenceLineRe       = regexp.MustCompile(`^(\s*)-\s`)
	anyKeyLineRe         = regexp.MustCompile(`^(\s*)[A-Za-z_][A-Za-z0-9_-]*\s*:\s*(?:#.*)?$`)
	blockScalarOpenRe    = regexp.MustCompile(`:\s*[|>][0-9]*[+-]?\s*(?:#.*)?$`)
)

// FormatProfile holds formatting hints read from the source text, fed
// back into the emitter so a rewrite matches the original layout.
type FormatProfile struct {
	// TopLevelSequenceIndents maps a top-level key to the indent its
	// sequence items carried in the source.
	TopLevelSequenceIndents map[string]int
	// UnquotedReferenceBrackets records key/value pairs that were
	// bracket expressions without quotes in the source.
	UnquotedReferenceBrackets map[[2]string]bool
	// CompactSequences is set when the source aligns sequence dashes
	// with their parent key instead of indenting them past it.
	CompactSequences bool
}

// DetectFormatProfile infers emit formatting hints from source text.
func DetectFormatProfile(raw string) FormatProfile {
	return FormatProfile{
		TopLevelSequenceIndents:   detectTopLevelSequenceIndents(raw),
		UnquotedReferenceBrackets: detectUnquotedReferenceBrackets(raw),
		CompactSequences:          detectCompactSequences(raw),
	}
}

// Parse decodes diagram source into a Document, quoting bracket
// reference scalars first so they survive as strings.
func Parse(raw string) (*ilodoc.Document, error) {
	normalized := quoteReferenceBracketScalars(raw)
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(normalized), &root); err != nil {
		return nil, parseError(err)
	}
	if root.Kind == 0 {
		// Empty input decodes to a zero node; start a fresh document.
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	return ilodoc.New(&root)
}

// Load reads and parses the diagram file, returning the document and
// the detected format profile.
func Load(path string) (*ilodoc.Document, FormatProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatProfile{}, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(string(raw))
	if err != nil {
		return nil, FormatProfile{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, DetectFormatProfile(string(raw)), nil
}

// Dump encodes the document, then restores the source's top-level
// sequence indents and unquotes bracket scalars the source kept bare.
func Dump(doc *ilodoc.Document, profile FormatProfile) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc.Root); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	out := buf.String()
	if profile.CompactSequences {
		out = applyCompactSequenceStyle(out)
	}
	out = applyTopLevelSequenceIndents(out, profile.TopLevelSequenceIndents)
	return restoreUnquotedReferenceBracketScalars(out, profile.UnquotedReferenceBrackets), nil
}

func parseError(err error) error {
	msg := err.Error()
	aliasLike := strings.Contains(msg, "unknown anchor") ||
		strings.Contains(msg, "undefined alias") ||
		strings.Contains(msg, "did not find expected alphabetic or numeric character")
	if aliasLike {
		return fmt.Errorf("yaml parse error: %w\nhint: quote Ilograph bracket references (example: from: '[*.cloudfront.net]')", err)
	}
	return fmt.Errorf("yaml parse error: %w", err)
}

// quoteReferenceBracketScalars single-quotes bracket expressions under
// reference keys so the parser reads them as strings.
func quoteReferenceBracketScalars(raw string) string {
	var out strings.Builder
	for _, line := range splitKeepEnds(raw) {
		body, eol := splitLineEnd(line)
		m := keyValueLineRe.FindStringSubmatch(body)
		if m == nil || !referenceKeys[m[2]] {
			out.WriteString(line)
			continue
		}
		escaped := strings.ReplaceAll(m[3], "'", "''")
		out.WriteString(m[1] + m[2] + ": '" + escaped + "'" + m[4] + eol)
	}
	return out.String()
}

func detectUnquotedReferenceBrackets(raw string) map[[2]string]bool {
	result := make(map[[2]string]bool)
	for _, line := range strings.Split(raw, "\n") {
		m := keyValueLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil || !referenceKeys[m[2]] {
			continue
		}
		result[[2]string{m[2], strings.TrimSpace(m[3])}] = true
	}
	return result
}

func restoreUnquotedReferenceBracketScalars(raw string, original map[[2]string]bool) string {
	if len(original) == 0 {
		return raw
	}
	var out strings.Builder
	for _, line := range splitKeepEnds(raw) {
		body, eol := splitLineEnd(line)
		m := quotedKeyValueLineRe.FindStringSubmatch(body)
		if m == nil || !original[[2]string{m[2], strings.TrimSpace(m[3])}] {
			out.WriteString(line)
			continue
		}
		out.WriteString(m[1] + m[2] + ": " + strings.TrimSpace(m[3]) + m[4] + eol)
	}
	return out.String()
}

// detectCompactSequences reports whether any key line is followed by a
// sequence dash at the key's own indent, the style Ilograph documents
// commonly use at every nesting level.
func detectCompactSequences(raw string) bool {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		key := anyKeyLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if key == nil {
			continue
		}
		for cursor := i + 1; cursor < len(lines); cursor++ {
			stripped := strings.TrimSpace(lines[cursor])
			if stripped == "" || strings.HasPrefix(stripped, "#") {
				continue
			}
			if m := sequenceLineRe.FindStringSubmatch(lines[cursor]); m != nil && len(m[1]) == len(key[1]) {
				return true
			}
			break
		}
	}
	return false
}

// applyCompactSequenceStyle rewrites the encoder's indented sequence
// layout into the compact one: every line moves left by two columns
// per enclosing sequence, which puts each dash in its parent key's
// column. Block scalar bodies shift with their key and are otherwise
// left alone.
func applyCompactSequenceStyle(raw string) string {
	var out strings.Builder
	var dashCols []int
	scalarIndent := -1
	scalarShift := 0
	for _, line := range splitKeepEnds(raw) {
		body, eol := splitLineEnd(line)
		stripped := strings.TrimLeft(body, " ")
		if strings.TrimSpace(stripped) == "" {
			out.WriteString(line)
			continue
		}
		indent := len(body) - len(stripped)
		if scalarIndent >= 0 {
			if indent > scalarIndent {
				out.WriteString(strings.Repeat(" ", max(0, indent-scalarShift)) + stripped + eol)
				continue
			}
			scalarIndent = -1
		}
		for len(dashCols) > 0 && indent < dashCols[len(dashCols)-1] {
			dashCols = dashCols[:len(dashCols)-1]
		}
		isDash := strings.HasPrefix(stripped, "- ") || strings.TrimRight(stripped, "\r") == "-"
		if isDash && (len(dashCols) == 0 || dashCols[len(dashCols)-1] != indent) {
			dashCols = append(dashCols, indent)
		}
		shift := 2 * len(dashCols)
		out.WriteString(strings.Repeat(" ", max(0, indent-shift)) + stripped + eol)
		if blockScalarOpenRe.MatchString(body) {
			scalarIndent = indent
			scalarShift = shift
		}
	}
	return out.String()
}

func detectTopLevelSequenceIndents(raw string) map[string]int {
	result := make(map[string]int)
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		key := topLevelKeyLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if key == nil {
			continue
		}
		for cursor := i + 1; cursor < len(lines); cursor++ {
			stripped := strings.TrimSpace(lines[cursor])
			if stripped == "" || strings.HasPrefix(stripped, "#") {
				continue
			}
			if m := sequenceLineRe.FindStringSubmatch(lines[cursor]); m != nil {
				result[key[1]] = len(m[1])
			}
			break
		}
	}
	return result
}

// applyTopLevelSequenceIndents shifts each top-level block so its
// sequence items sit at the indent the source used.
func applyTopLevelSequenceIndents(raw string, indents map[string]int) string {
	if len(indents) == 0 {
		return raw
	}
	lines := splitKeepEnds(raw)
	var out strings.Builder
	i := 0
	for i < len(lines) {
		body, _ := splitLineEnd(lines[i])
		key := topLevelKeyLineRe.FindStringSubmatch(body)
		if key == nil {
			out.WriteString(lines[i])
			i++
			continue
		}
		out.WriteString(lines[i])
		i++
		blockStart := i
		for i < len(lines) && !topLevelKeyPrefixRe.MatchString(lines[i]) {
			i++
		}
		block := lines[blockStart:i]
		desired, ok := indents[key[1]]
		if !ok {
			writeAll(&out, block)
			continue
		}
		current := -1
		for _, blockLine := range block {
			stripped := strings.TrimSpace(blockLine)
			if stripped == "" || strings.HasPrefix(stripped, "#") {
				continue
			}
			if m := sequenceLineRe.FindStringSubmatch(blockLine); m != nil {
				current = len(m[1])
			}
			break
		}
		if current < 0 || current == desired {
			writeAll(&out, block)
			continue
		}
		delta := desired - current
		for _, blockLine := range block {
			if strings.TrimSpace(blockLine) == "" {
				out.WriteString(blockLine)
				continue
			}
			if delta > 0 {
				out.WriteString(strings.Repeat(" ", delta) + blockLine)
				continue
			}
			removable := min(-delta, leadingSpaces(blockLine))
			out.WriteString(blockLine[removable:])
		}
	}
	return out.String()
}

func writeAll(out *strings.Builder, lines []string) {
	for _, line := range lines {
		out.WriteString(line)
	}
}

func leadingSpaces(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// splitKeepEnds splits into lines, each keeping its trailing newline.
func splitKeepEnds(raw string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' {
			lines = append(lines, raw[start:i+1])
			start = i + 1
		}
	}
	if start < len(raw) {
		lines = append(lines, raw[start:])
	}
	return lines
}

func splitLineEnd(line string) (body, eol string) {
	body = line
	if strings.HasSuffix(body, "\n") {
		body = body[:len(body)-1]
		eol = "\n"
	}
	if strings.HasSuffix(body, "\r") {
		body = body[:len(body)-1]
		eol = "\r" + eol
	}
	return body, eol
}
