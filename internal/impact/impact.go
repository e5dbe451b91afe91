// Package impact lists every site that references or owns a given
// resource identifier: the resource tree, all reference-bearing
// perspective fields, context strings, and perspective ids.
package impact

import (
	"fmt"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/reffields"
	"ilo/internal/refs"
)

// Hit is a single occurrence of the identifier.
type Hit struct {
	Perspective string
	Section     string
	Path        string
	Field       string
	Value       string
}

// ForResource finds all references and ownership spots for resourceID.
func ForResource(doc *ilodoc.Document, resourceID string) []Hit {
	want := refs.NormalizeIdent(resourceID)
	var hits []Hit

	for _, loc := range index.Resources(doc) {
		if loc.Identifier != want {
			continue
		}
		hits = append(hits, Hit{
			Section: "resource",
			Path:    loc.Path,
			Field:   "id/name",
			Value:   loc.Identifier,
		})
	}

	for _, field := range reffields.All(doc, reffields.Options{IncludeInstanceOf: true}) {
		if !refs.ContainsIdentifier(field.Value(), want) {
			continue
		}
		hits = append(hits, Hit{
			Perspective: field.Perspective,
			Section:     field.Section,
			Path:        field.Path,
			Field:       field.Key,
			Value:       field.Value(),
		})
	}

	for _, field := range reffields.ContextFields(doc) {
		if !refs.ContainsIdentifier(field.Value(), want) {
			continue
		}
		hits = append(hits, Hit{
			Section: field.Section,
			Path:    field.Path,
			Field:   field.Key,
			Value:   field.Value(),
		})
	}

	for _, ploc := range index.Perspectives(doc) {
		if ploc.Identifier != want {
			continue
		}
		hits = append(hits, Hit{
			Perspective: ploc.Identifier,
			Section:     "perspective",
			Path:        fmt.Sprintf("perspectives[%d]", ploc.Index),
			Field:       "id/name",
			Value:       ploc.Identifier,
		})
	}

	return hits
}
