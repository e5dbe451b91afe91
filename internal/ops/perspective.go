package ops

import (
	"strings"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/refs"
)

// PerspectiveInfo is one row of a perspective listing.
type PerspectiveInfo struct {
	Identifier string
	Name       string
	Extends    []string
	Relations  int
	Overrides  int
	Aliases    int
	Hidden     bool
}

// ListPerspectives returns a summary row per perspective, in document
// order.
func ListPerspectives(doc *ilodoc.Document) []PerspectiveInfo {
	var out []PerspectiveInfo
	for _, loc := range index.Perspectives(doc) {
		info := PerspectiveInfo{
			Identifier: loc.Identifier,
			Name:       ilodoc.StrValue(loc.Node, ilodoc.KeyName),
			Extends:    splitExtendsList(ilodoc.RawStrValue(loc.Node, ilodoc.KeyExtends)),
			Hidden:     ilodoc.BoolValue(loc.Node, "hidden"),
		}
		if relations := ilodoc.MapGet(loc.Node, ilodoc.KeyRelations); ilodoc.IsSeq(relations) {
			info.Relations = len(relations.Content)
		}
		if overrides := ilodoc.MapGet(loc.Node, ilodoc.KeyOverrides); ilodoc.IsSeq(overrides) {
			info.Overrides = len(overrides.Content)
		}
		if aliases := ilodoc.MapGet(loc.Node, ilodoc.KeyAliases); ilodoc.IsSeq(aliases) {
			info.Aliases = len(aliases.Content)
		}
		out = append(out, info)
	}
	return out
}

// CreatePerspective appends an empty perspective with the given id and
// optional name and extends list.
func CreatePerspective(doc *ilodoc.Document, id, name, extends string) error {
	if err := checkNewPerspectiveID(doc, id); err != nil {
		return err
	}
	if extends != "" {
		for _, base := range splitExtendsList(extends) {
			if _, err := index.Perspective(doc, base); err != nil {
				return err
			}
		}
	}
	perspective := ilodoc.Map()
	ilodoc.MapSet(perspective, ilodoc.KeyID, ilodoc.Str(id))
	if name != "" {
		ilodoc.MapSet(perspective, ilodoc.KeyName, ilodoc.Str(name))
	}
	if extends != "" {
		ilodoc.MapSet(perspective, ilodoc.KeyExtends, ilodoc.Str(extends))
	}
	seq := doc.EnsurePerspectives()
	seq.Content = append(seq.Content, perspective)
	return nil
}

// RenamePerspective changes a perspective id and rewrites extends lists
// that name the old id.
func RenamePerspective(doc *ilodoc.Document, oldID, newID string) error {
	loc, err := index.Perspective(doc, oldID)
	if err != nil {
		return err
	}
	if refs.NormalizeIdent(newID) != loc.Identifier {
		if err := checkNewPerspectiveID(doc, newID); err != nil {
			return err
		}
	}
	if ilodoc.StrValue(loc.Node, ilodoc.KeyID) != "" {
		ilodoc.MapSet(loc.Node, ilodoc.KeyID, ilodoc.Str(newID))
	} else {
		ilodoc.MapSet(loc.Node, ilodoc.KeyName, ilodoc.Str(newID))
	}
	for _, other := range index.Perspectives(doc) {
		rewriteExtends(other.Node, loc.Identifier, newID)
	}
	return nil
}

// DeletePerspective removes a perspective. When other perspectives
// extend it, force also strips it from their extends lists; without
// force the delete fails.
func DeletePerspective(doc *ilodoc.Document, id string, force bool) error {
	loc, err := index.Perspective(doc, id)
	if err != nil {
		return err
	}
	var dependents []index.PerspectiveLocation
	for _, other := range index.Perspectives(doc) {
		if other.Node == loc.Node {
			continue
		}
		for _, base := range splitExtendsList(ilodoc.RawStrValue(other.Node, ilodoc.KeyExtends)) {
			if refs.NormalizeIdent(base) == loc.Identifier {
				dependents = append(dependents, other)
				break
			}
		}
	}
	if len(dependents) > 0 && !force {
		names := make([]string, len(dependents))
		for i, d := range dependents {
			names[i] = d.Identifier
		}
		return errSchema("perspective %s is extended by %s (pass force to delete and detach them)", loc.Identifier, strings.Join(names, ", "))
	}
	for _, dependent := range dependents {
		dropExtendsEntry(dependent.Node, loc.Identifier)
	}
	ilodoc.SeqRemove(loc.Container, loc.Index)
	return nil
}

// CopyPerspective deep-copies a perspective under a new id.
func CopyPerspective(doc *ilodoc.Document, id, newID string) error {
	loc, err := index.Perspective(doc, id)
	if err != nil {
		return err
	}
	if err := checkNewPerspectiveID(doc, newID); err != nil {
		return err
	}
	clone := ilodoc.Clone(loc.Node)
	ilodoc.ClearAnchors(clone)
	ilodoc.MapSet(clone, ilodoc.KeyID, ilodoc.Str(newID))
	seq := doc.EnsurePerspectives()
	seq.Content = append(seq.Content, clone)
	return nil
}

// ReorderPerspective moves the perspective to the 1-based position.
func ReorderPerspective(doc *ilodoc.Document, id string, position int) error {
	loc, err := index.Perspective(doc, id)
	if err != nil {
		return err
	}
	size := len(loc.Container.Content)
	if position < 1 || position > size {
		return errIndexRange("position out of range: %d (valid range: 1..%d)", position, size)
	}
	ilodoc.SeqRemove(loc.Container, loc.Index)
	ilodoc.SeqInsert(loc.Container, position-1, loc.Node)
	return nil
}

func checkNewPerspectiveID(doc *ilodoc.Document, id string) error {
	if strings.TrimSpace(id) == "" {
		return errSchema("perspective id must not be empty")
	}
	if ch := refs.FirstRestrictedChar(id); ch != 0 {
		return errInvalidRef("perspective id %s contains restricted character %q", id, ch)
	}
	if loc, err := index.Perspective(doc, id); err == nil {
		return errAlreadyExists("perspective id already in use: %s (at perspectives[%d])", id, loc.Index)
	}
	return nil
}

func splitExtendsList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func rewriteExtends(perspective *yaml.Node, oldID, newID string) {
	raw := ilodoc.RawStrValue(perspective, ilodoc.KeyExtends)
	if raw == "" {
		return
	}
	parts := splitExtendsList(raw)
	changed := false
	for i, part := range parts {
		if refs.NormalizeIdent(part) == refs.NormalizeIdent(oldID) {
			parts[i] = newID
			changed = true
		}
	}
	if changed {
		ilodoc.MapSet(perspective, ilodoc.KeyExtends, ilodoc.Str(strings.Join(parts, ", ")))
	}
}

func dropExtendsEntry(perspective *yaml.Node, id string) {
	parts := splitExtendsList(ilodoc.RawStrValue(perspective, ilodoc.KeyExtends))
	var kept []string
	for _, part := range parts {
		if refs.NormalizeIdent(part) != refs.NormalizeIdent(id) {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		ilodoc.MapDelete(perspective, ilodoc.KeyExtends)
		return
	}
	ilodoc.MapSet(perspective, ilodoc.KeyExtends, ilodoc.Str(strings.Join(kept, ", ")))
}
