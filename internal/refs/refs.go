// Package refs implements the Ilograph reference expression grammar:
// comma-separated parts, `/` and `//` path separators, `../`-style relative
// prefixes, `*` wildcards, special tokens, `[...]` external literals, `::`
// import namespaces, and trailing clone markers.
package refs

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Characters that may appear inside an identifier token. A candidate match
// bounded by any of these is part of a larger identifier, not a reference.
const identBoundaryChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_.:-"

// RestrictedIdentChars cannot appear in resource ids or alias names.
const RestrictedIdentChars = "/^*[],"

var specialTokens = map[string]bool{
	"*":    true,
	"none": true,
	"^":    true,
}

// Component is a single parsed component of a reference expression.
type Component struct {
	Token      string
	Raw        string
	Relative   bool
	Wildcard   bool
	Namespaced bool
	Special    bool
	Literal    bool
}

// NormalizeIdent trims and NFC-normalises an identifier so visually
// identical ids compare equal.
func NormalizeIdent(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// IsSpecialToken reports whether token is one of the reserved reference
// tokens (`*`, `none`, `^`).
func IsSpecialToken(token string) bool {
	return specialTokens[strings.ToLower(token)]
}

// FirstRestrictedChar returns the first restricted identifier character in
// value, or 0.
func FirstRestrictedChar(value string) rune {
	for _, r := range value {
		if strings.ContainsRune(RestrictedIdentChars, r) {
			return r
		}
	}
	return 0
}

// SplitList splits a comma-separated reference expression, honouring
// square brackets, parentheses, quotes, and escapes.
func SplitList(raw string) []string {
	var parts []string
	var current strings.Builder
	squareDepth, parenDepth := 0, 0
	inSingle, inDouble, escaped := false, false, false

	flush := func() {
		segment := strings.TrimSpace(current.String())
		if segment != "" {
			parts = append(parts, segment)
		}
		current.Reset()
	}

	for _, ch := range raw {
		if escaped {
			current.WriteRune(ch)
			escaped = false
			continue
		}
		if ch == '\\' && (inSingle || inDouble) {
			current.WriteRune(ch)
			escaped = true
			continue
		}
		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			current.WriteRune(ch)
			continue
		}
		if ch == '"' && !inSingle {
			inDouble = !inDouble
			current.WriteRune(ch)
			continue
		}
		if !inSingle && !inDouble {
			switch {
			case ch == '[':
				squareDepth++
			case ch == ']' && squareDepth > 0:
				squareDepth--
			case ch == '(':
				parenDepth++
			case ch == ')' && parenDepth > 0:
				parenDepth--
			case ch == ',' && squareDepth == 0 && parenDepth == 0:
				flush()
				continue
			}
		}
		current.WriteRune(ch)
	}
	flush()
	return parts
}

// ParseComponents parses a full reference expression into comparable
// components.
func ParseComponents(raw string) []Component {
	var components []Component
	for _, part := range SplitList(raw) {
		components = append(components, parsePartComponents(part)...)
	}
	return components
}

// ExtractTokens returns the candidate resource identifiers referenced by
// the expression, excluding specials, wildcards, and bracket literals.
func ExtractTokens(raw string) map[string]bool {
	tokens := make(map[string]bool)
	for _, c := range ParseComponents(raw) {
		if c.Special || c.Wildcard || c.Literal || c.Token == "" {
			continue
		}
		tokens[c.Token] = true
	}
	return tokens
}

// ContainsIdentifier reports whether identifier appears as a reference
// component of the expression.
func ContainsIdentifier(raw, identifier string) bool {
	want := NormalizeIdent(identifier)
	for _, c := range ParseComponents(raw) {
		if c.Literal {
			continue
		}
		if NormalizeIdent(c.Token) == want {
			return true
		}
	}
	return false
}

// ReplaceIdentifier rewrites exact identifier tokens inside the reference
// expression. Matches inside `[...]` literals are left untouched, and a
// match bounded by identifier characters is part of a longer token and is
// skipped.
func ReplaceIdentifier(raw, old, new string) string {
	if old == new || old == "" {
		return raw
	}
	var out strings.Builder
	squareDepth := 0
	i := 0
	for i < len(raw) {
		ch := raw[i]
		switch ch {
		case '[':
			squareDepth++
		case ']':
			if squareDepth > 0 {
				squareDepth--
			}
		}
		if squareDepth == 0 && strings.HasPrefix(raw[i:], old) && boundaryBefore(raw, i) && boundaryAfter(raw, i+len(old)) {
			out.WriteString(new)
			i += len(old)
			continue
		}
		out.WriteByte(ch)
		i++
	}
	return out.String()
}

func boundaryBefore(raw string, idx int) bool {
	if idx == 0 {
		return true
	}
	return !strings.ContainsRune(identBoundaryChars, rune(raw[idx-1]))
}

func boundaryAfter(raw string, idx int) bool {
	if idx >= len(raw) {
		return true
	}
	return !strings.ContainsRune(identBoundaryChars, rune(raw[idx]))
}

func parsePartComponents(part string) []Component {
	base := stripCloneSuffix(strings.TrimSpace(part))
	if base == "" {
		return nil
	}

	relative := false
	for {
		if strings.HasPrefix(base, "../") {
			relative = true
			base = strings.TrimLeft(base[3:], " \t")
			continue
		}
		if strings.HasPrefix(base, ".../") {
			relative = true
			base = strings.TrimLeft(base[4:], " \t")
			continue
		}
		break
	}
	if base == "" {
		return nil
	}

	var parsed []Component
	for _, rawComponent := range splitPath(base) {
		token := strings.TrimSpace(rawComponent)
		if token == "" {
			continue
		}

		literal := false
		if strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") && len(token) >= 2 {
			literal = true
			token = strings.TrimSpace(token[1 : len(token)-1])
		}
		if token == "" {
			continue
		}

		special := IsSpecialToken(token)
		parsed = append(parsed, Component{
			Token:      token,
			Raw:        rawComponent,
			Relative:   relative,
			Wildcard:   strings.Contains(token, "*") && !special,
			Namespaced: strings.Contains(token, "::"),
			Special:    special,
			Literal:    literal,
		})
	}
	return parsed
}

// splitPath splits a reference path on `/` and `//`, honouring brackets and
// parentheses.
func splitPath(raw string) []string {
	var parts []string
	var current strings.Builder
	squareDepth, parenDepth := 0, 0

	flush := func() {
		segment := strings.TrimSpace(current.String())
		if segment != "" {
			parts = append(parts, segment)
		}
		current.Reset()
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case ch == '[':
			squareDepth++
		case ch == ']' && squareDepth > 0:
			squareDepth--
		case ch == '(':
			parenDepth++
		case ch == ')' && parenDepth > 0:
			parenDepth--
		}
		if ch == '/' && squareDepth == 0 && parenDepth == 0 {
			flush()
			if i+1 < len(raw) && raw[i+1] == '/' {
				i++
			}
			continue
		}
		current.WriteByte(ch)
	}
	flush()
	return parts
}

// stripCloneSuffix removes a trailing ` *id` clone marker.
func stripCloneSuffix(raw string) string {
	text := strings.TrimRight(raw, " \t")
	if text == "" {
		return text
	}

	squareDepth, parenDepth := 0, 0
	for index := len(text) - 1; index >= 0; index-- {
		ch := text[index]
		switch {
		case ch == ']':
			squareDepth++
			continue
		case ch == '[' && squareDepth > 0:
			squareDepth--
			continue
		case ch == ')':
			parenDepth++
			continue
		case ch == '(' && parenDepth > 0:
			parenDepth--
			continue
		}
		if squareDepth > 0 || parenDepth > 0 {
			continue
		}
		if ch != '*' || index == 0 {
			continue
		}
		if !isSpace(text[index-1]) {
			continue
		}
		suffix := strings.TrimSpace(text[index+1:])
		if suffix == "" {
			continue
		}
		if strings.ContainsAny(suffix, " \t/,") {
			continue
		}
		return strings.TrimRight(text[:index-1], " \t")
	}
	return text
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
