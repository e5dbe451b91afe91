// Package resolve maps reference expressions to resource identifiers,
// explaining each token: resolved, alias, special, wildcard, namespace,
// ambiguous, or unresolved. Resolution never fails the process; callers
// decide which statuses are fatal.
package resolve

import (
	"strings"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/refs"
)

// Status classifies a resolved token.
type Status string

const (
	StatusResolved     Status = "resolved"
	StatusSpecial      Status = "special"
	StatusWildcard     Status = "wildcard"
	StatusLiteral      Status = "literal"
	StatusAlias        Status = "alias"
	StatusImportedNS   Status = "imported-namespace"
	StatusUnresolvedNS Status = "unresolved-namespace"
	StatusAmbiguous    Status = "ambiguous"
	StatusUnresolved   Status = "unresolved"
	StatusEmpty        Status = "empty"
)

// Row is the per-token resolution result.
type Row struct {
	Part    string
	Token   string
	Status  Status
	Details string
}

// Fatal reports whether the status is a hard failure at mutation sites.
// Read-only commands surface every row without aborting.
func (r Row) Fatal() bool {
	switch r.Status {
	case StatusAmbiguous, StatusUnresolved, StatusUnresolvedNS:
		return true
	}
	return false
}

// Reference resolves a reference expression against the document. Alias
// lookup uses the given perspective; plain ids and names are
// perspective-independent.
func Reference(doc *ilodoc.Document, reference, perspective string) []Row {
	resources := collectResourceIndex(doc)
	aliases := aliasesForPerspective(doc, perspective)
	namespaces := doc.ImportNamespaces()

	parts := refs.SplitList(reference)
	if len(parts) == 0 {
		return []Row{{Part: reference, Token: "-", Status: StatusEmpty, Details: "-"}}
	}

	var rows []Row
	for _, part := range parts {
		components := refs.ParseComponents(part)
		if len(components) == 0 {
			rows = append(rows, Row{Part: part, Token: "-", Status: StatusEmpty, Details: "-"})
			continue
		}
		for _, component := range components {
			rows = append(rows, resolveComponent(component, part, resources, aliases, namespaces))
		}
	}
	return rows
}

// Identifiers resolves a reference expression to the resource identifiers
// it denotes, in order, skipping specials, wildcards, and literals. The
// second result carries the rows for diagnostics.
func Identifiers(doc *ilodoc.Document, reference, perspective string) ([]string, []Row) {
	rows := Reference(doc, reference, perspective)
	var ids []string
	seen := make(map[string]bool)
	for _, row := range rows {
		if row.Status != StatusResolved && row.Status != StatusAlias {
			continue
		}
		token := refs.NormalizeIdent(row.Token)
		if token != "" && !seen[token] {
			seen[token] = true
			ids = append(ids, token)
		}
	}
	return ids, rows
}

func resolveComponent(
	component refs.Component,
	part string,
	resources resourceLookup,
	aliases map[string]string,
	namespaces map[string]bool,
) Row {
	token := component.Token
	row := Row{Part: part, Token: token, Status: StatusResolved, Details: "-"}

	switch {
	case component.Special:
		row.Status = StatusSpecial
	case component.Wildcard:
		row.Status = StatusWildcard
	case component.Literal:
		row.Status = StatusLiteral
	default:
		if target, ok := aliases[refs.NormalizeIdent(token)]; ok {
			row.Status = StatusAlias
			row.Details = target
			return row
		}
		if component.Namespaced {
			namespace := strings.SplitN(token, "::", 2)[0]
			if namespaces[refs.NormalizeIdent(namespace)] {
				row.Status = StatusImportedNS
			} else {
				row.Status = StatusUnresolvedNS
			}
			return row
		}
		// An explicit id beats any resource merely named like the
		// token, matching how mutation lookups behave.
		paths := resources.byID[refs.NormalizeIdent(token)]
		if len(paths) == 0 {
			paths = resources.byName[refs.NormalizeIdent(token)]
		}
		switch len(paths) {
		case 0:
			row.Status = StatusUnresolved
		case 1:
			row.Details = paths[0]
		default:
			row.Status = StatusAmbiguous
			row.Details = strings.Join(paths, ", ")
		}
	}
	return row
}

// resourceLookup indexes resources by explicit id and by display name
// separately so id matches take precedence.
type resourceLookup struct {
	byID   map[string][]string
	byName map[string][]string
}

func collectResourceIndex(doc *ilodoc.Document) resourceLookup {
	out := resourceLookup{
		byID:   make(map[string][]string),
		byName: make(map[string][]string),
	}
	for _, loc := range index.Resources(doc) {
		id := refs.NormalizeIdent(ilodoc.StrValue(loc.Node, "id"))
		if id != "" {
			out.byID[id] = append(out.byID[id], loc.Path)
		}
		if name := refs.NormalizeIdent(ilodoc.StrValue(loc.Node, "name")); name != "" && name != id {
			out.byName[name] = append(out.byName[name], loc.Path)
		}
	}
	return out
}

func aliasesForPerspective(doc *ilodoc.Document, perspective string) map[string]string {
	result := make(map[string]string)
	if perspective == "" {
		return result
	}
	ploc, err := index.Perspective(doc, perspective)
	if err != nil {
		return result
	}
	aliases := ilodoc.MapGet(ploc.Node, ilodoc.KeyAliases)
	if !ilodoc.IsSeq(aliases) {
		return result
	}
	for _, alias := range aliases.Content {
		if !ilodoc.IsMap(alias) {
			continue
		}
		name := refs.NormalizeIdent(ilodoc.StrValue(alias, "alias"))
		target := ilodoc.StrValue(alias, "for")
		if name != "" && target != "" {
			result[name] = target
		}
	}
	return result
}
