package cache

import (
	"sort"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

// BuildIndexPayload snapshots the resolvable surface of a document.
func BuildIndexPayload(doc *ilodoc.Document, broken bool) *IndexPayload {
	payload := &IndexPayload{Broken: broken}
	for _, loc := range index.Resources(doc) {
		if loc.Identifier != "" {
			payload.Identifiers = append(payload.Identifiers, loc.Identifier)
		}
	}
	for _, loc := range index.Perspectives(doc) {
		if loc.Identifier != "" {
			payload.PerspectiveIDs = append(payload.PerspectiveIDs, loc.Identifier)
		}
	}
	for _, loc := range index.Contexts(doc) {
		payload.ContextNames = append(payload.ContextNames, loc.Name)
	}
	for ns := range doc.ImportNamespaces() {
		payload.Namespaces = append(payload.Namespaces, ns)
	}
	sort.Strings(payload.Namespaces)
	return payload
}
