// Package index provides positional lookups over a parsed diagram:
// resource locations in the tree, perspectives, and contexts.
package index

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/refs"
)

// ResourceLocation describes a resource node and where it sits.
type ResourceLocation struct {
	Identifier string
	Node       *yaml.Node
	Parent     *yaml.Node
	Container  *yaml.Node
	Index      int
	Path       string
}

// PerspectiveLocation describes a perspective entry. Container is the
// perspectives sequence holding Node at Index.
type PerspectiveLocation struct {
	Identifier string
	Node       *yaml.Node
	Container  *yaml.Node
	Index      int
}

// ContextLocation describes a context entry. Container is the contexts
// sequence holding Node at Index.
type ContextLocation struct {
	Name      string
	Node      *yaml.Node
	Container *yaml.Node
	Index     int
}

// ResourceIdentifier returns the resource's id, falling back to its name.
func ResourceIdentifier(resource *yaml.Node) string {
	if id := ilodoc.StrValue(resource, "id"); id != "" {
		return refs.NormalizeIdent(id)
	}
	if name := ilodoc.StrValue(resource, "name"); name != "" {
		return refs.NormalizeIdent(name)
	}
	return ""
}

// PerspectiveIdentifier returns the perspective's id, falling back to name.
func PerspectiveIdentifier(perspective *yaml.Node) string {
	if id := ilodoc.StrValue(perspective, "id"); id != "" {
		return refs.NormalizeIdent(id)
	}
	if name := ilodoc.StrValue(perspective, "name"); name != "" {
		return refs.NormalizeIdent(name)
	}
	return ""
}

// Resources walks the resource tree depth-first and returns every
// identifiable resource with structural metadata.
func Resources(doc *ilodoc.Document) []ResourceLocation {
	resources := doc.Resources()
	if !ilodoc.IsSeq(resources) {
		return nil
	}
	var out []ResourceLocation
	collectResources(resources, nil, "resources", &out)
	return out
}

func collectResources(seq, parent *yaml.Node, pathPrefix string, out *[]ResourceLocation) {
	for i, raw := range seq.Content {
		if !ilodoc.IsMap(raw) {
			continue
		}
		identifier := ResourceIdentifier(raw)
		if identifier == "" {
			continue
		}
		loc := ResourceLocation{
			Identifier: identifier,
			Node:       raw,
			Parent:     parent,
			Container:  seq,
			Index:      i,
			Path:       fmt.Sprintf("%s[%d]", pathPrefix, i),
		}
		*out = append(*out, loc)
		if children := ilodoc.MapGet(raw, ilodoc.KeyChildren); ilodoc.IsSeq(children) {
			collectResources(children, raw, loc.Path+".children", out)
		}
	}
}

// ByIdentifier maps id-or-name identifiers to all their locations.
func ByIdentifier(doc *ilodoc.Document) map[string][]ResourceLocation {
	m := make(map[string][]ResourceLocation)
	for _, loc := range Resources(doc) {
		m[loc.Identifier] = append(m[loc.Identifier], loc)
		// Register the display name too: lookups check id first, then name.
		if name := refs.NormalizeIdent(ilodoc.StrValue(loc.Node, "name")); name != "" && name != loc.Identifier {
			m[name] = append(m[name], loc)
		}
	}
	return m
}

// ByExplicitID maps explicit resource ids to all their locations.
func ByExplicitID(doc *ilodoc.Document) map[string][]ResourceLocation {
	m := make(map[string][]ResourceLocation)
	for _, loc := range Resources(doc) {
		if id := refs.NormalizeIdent(ilodoc.StrValue(loc.Node, "id")); id != "" {
			m[id] = append(m[id], loc)
		}
	}
	return m
}

// Resource returns the unique resource matching identifier (id first,
// then display name).
func Resource(doc *ilodoc.Document, identifier string) (ResourceLocation, error) {
	want := refs.NormalizeIdent(identifier)
	byID := ByExplicitID(doc)
	if found := byID[want]; len(found) == 1 {
		return found[0], nil
	} else if len(found) > 1 {
		return ResourceLocation{}, &diag.OpError{
			Code: diag.OpNotUnique,
			Msg:  fmt.Sprintf("resource id not unique: %s (%s)", identifier, joinPaths(found)),
		}
	}

	var byName []ResourceLocation
	for _, loc := range Resources(doc) {
		if refs.NormalizeIdent(ilodoc.StrValue(loc.Node, "name")) == want {
			byName = append(byName, loc)
		}
	}
	switch len(byName) {
	case 0:
		return ResourceLocation{}, &diag.OpError{
			Code: diag.OpNotFound,
			Msg:  fmt.Sprintf("resource not found: %s (lookup checks id first, then name)", identifier),
		}
	case 1:
		return byName[0], nil
	default:
		return ResourceLocation{}, &diag.OpError{
			Code: diag.OpNotUnique,
			Msg:  fmt.Sprintf("resource name not unique: %s (%s; set explicit unique ids)", identifier, joinPaths(byName)),
		}
	}
}

// ResourceByID returns the unique resource with the explicit id.
func ResourceByID(doc *ilodoc.Document, resourceID string) (ResourceLocation, error) {
	want := refs.NormalizeIdent(resourceID)
	found := ByExplicitID(doc)[want]
	switch len(found) {
	case 0:
		return ResourceLocation{}, &diag.OpError{
			Code: diag.OpNotFound,
			Msg:  fmt.Sprintf("resource id not found: %s (expected exact match in resources[].id)", resourceID),
		}
	case 1:
		return found[0], nil
	default:
		return ResourceLocation{}, &diag.OpError{
			Code: diag.OpNotUnique,
			Msg:  fmt.Sprintf("resource id not unique: %s (%s)", resourceID, joinPaths(found)),
		}
	}
}

// Perspectives returns every identifiable perspective.
func Perspectives(doc *ilodoc.Document) []PerspectiveLocation {
	perspectives := doc.Perspectives()
	if !ilodoc.IsSeq(perspectives) {
		return nil
	}
	var out []PerspectiveLocation
	for i, raw := range perspectives.Content {
		if !ilodoc.IsMap(raw) {
			continue
		}
		identifier := PerspectiveIdentifier(raw)
		if identifier == "" {
			continue
		}
		out = append(out, PerspectiveLocation{Identifier: identifier, Node: raw, Container: perspectives, Index: i})
	}
	return out
}

// Perspective returns the unique perspective matching identifier.
func Perspective(doc *ilodoc.Document, identifier string) (PerspectiveLocation, error) {
	want := refs.NormalizeIdent(identifier)
	var candidates []PerspectiveLocation
	for _, loc := range Perspectives(doc) {
		if loc.Identifier == want {
			candidates = append(candidates, loc)
		}
	}
	switch len(candidates) {
	case 0:
		return PerspectiveLocation{}, &diag.OpError{
			Code: diag.OpNotFound,
			Msg:  fmt.Sprintf("perspective not found: %s (lookup checks id first, then name)", identifier),
		}
	case 1:
		return candidates[0], nil
	default:
		indices := make([]string, len(candidates))
		for i, c := range candidates {
			indices[i] = fmt.Sprintf("%d", c.Index)
		}
		return PerspectiveLocation{}, &diag.OpError{
			Code: diag.OpNotUnique,
			Msg:  fmt.Sprintf("perspective id not unique: %s (%s)", identifier, strings.Join(indices, ", ")),
		}
	}
}

// Contexts returns every named context in document order.
func Contexts(doc *ilodoc.Document) []ContextLocation {
	contexts := doc.Contexts()
	if !ilodoc.IsSeq(contexts) {
		return nil
	}
	var out []ContextLocation
	for i, raw := range contexts.Content {
		if !ilodoc.IsMap(raw) {
			continue
		}
		name := refs.NormalizeIdent(ilodoc.StrValue(raw, "name"))
		if name == "" {
			continue
		}
		out = append(out, ContextLocation{Name: name, Node: raw, Container: contexts, Index: i})
	}
	return out
}

// Context returns the unique context with the given name.
func Context(doc *ilodoc.Document, name string) (ContextLocation, error) {
	want := refs.NormalizeIdent(name)
	var matches []ContextLocation
	for _, loc := range Contexts(doc) {
		if loc.Name == want {
			matches = append(matches, loc)
		}
	}
	switch len(matches) {
	case 0:
		return ContextLocation{}, &diag.OpError{
			Code: diag.OpNotFound,
			Msg:  fmt.Sprintf("context not found: %s", name),
		}
	case 1:
		return matches[0], nil
	default:
		indices := make([]string, len(matches))
		for i, m := range matches {
			indices[i] = fmt.Sprintf("%d", m.Index)
		}
		return ContextLocation{}, &diag.OpError{
			Code: diag.OpNotUnique,
			Msg:  fmt.Sprintf("context name not unique: %s (%s)", name, strings.Join(indices, ", ")),
		}
	}
}

// ContextNames returns the set of context names.
func ContextNames(doc *ilodoc.Document) map[string]bool {
	names := make(map[string]bool)
	for _, loc := range Contexts(doc) {
		names[loc.Name] = true
	}
	return names
}

// EnsureChildren returns the children sequence, creating it when missing.
func EnsureChildren(resource *yaml.Node) *yaml.Node {
	return ilodoc.EnsureSeq(resource, ilodoc.KeyChildren)
}

func joinPaths(locs []ResourceLocation) string {
	paths := make([]string, len(locs))
	for i, loc := range locs {
		paths[i] = loc.Path
	}
	return strings.Join(paths, ", ")
}
