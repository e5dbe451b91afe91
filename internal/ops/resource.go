package ops

import (
	"strings"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/reffields"
	"ilo/internal/refs"
)

// RootParent addresses the top-level resources list as a move/clone
// destination.
const RootParent = "^"

// CreateResourceSpec carries the fields of a new resource. ID is
// required; empty optional fields are omitted from the document.
type CreateResourceSpec struct {
	ID       string
	Name     string
	Subtitle string
	Parent   string
}

// CreateResource appends a new resource under the parent, or at the top
// level when Parent is empty or "^".
func CreateResource(doc *ilodoc.Document, spec CreateResourceSpec) error {
	if err := checkNewIdentifier(doc, spec.ID); err != nil {
		return err
	}
	container, err := resolveParentContainer(doc, spec.Parent)
	if err != nil {
		return err
	}
	resource := ilodoc.Map()
	if spec.Name != "" {
		ilodoc.MapSet(resource, ilodoc.KeyName, ilodoc.Str(spec.Name))
	}
	ilodoc.MapSet(resource, ilodoc.KeyID, ilodoc.Str(spec.ID))
	if spec.Subtitle != "" {
		ilodoc.MapSet(resource, ilodoc.KeySubtitle, ilodoc.Str(spec.Subtitle))
	}
	container.Content = append(container.Content, resource)
	return nil
}

// RenameResource sets the display name of the resource. When the
// resource is identified by name alone, references to the old name are
// rewritten to the new one.
func RenameResource(doc *ilodoc.Document, identifier, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return errSchema("new name must not be empty")
	}
	loc, err := index.Resource(doc, identifier)
	if err != nil {
		return err
	}
	hasExplicitID := ilodoc.StrValue(loc.Node, ilodoc.KeyID) != ""
	if !hasExplicitID {
		// The name is the identifier here, so the rename is also an
		// identifier change.
		if ch := refs.FirstRestrictedChar(newName); ch != 0 {
			return errInvalidRef("new name contains restricted character %q (resource has no id, so its name is referenced)", ch)
		}
		if refs.NormalizeIdent(newName) != loc.Identifier {
			if err := checkNewIdentifier(doc, newName); err != nil {
				return err
			}
			rewriteReferences(doc, loc.Identifier, newName)
		}
	}
	ilodoc.MapSet(loc.Node, ilodoc.KeyName, ilodoc.Str(newName))
	return nil
}

// RenameResourceID changes the explicit id of a resource and rewrites
// every reference to it across perspectives and contexts.
func RenameResourceID(doc *ilodoc.Document, oldID, newID string) error {
	loc, err := index.ResourceByID(doc, oldID)
	if err != nil {
		return err
	}
	if refs.NormalizeIdent(newID) == refs.NormalizeIdent(oldID) {
		ilodoc.MapSet(loc.Node, ilodoc.KeyID, ilodoc.Str(newID))
		return nil
	}
	if err := checkNewIdentifier(doc, newID); err != nil {
		return err
	}
	ilodoc.MapSet(loc.Node, ilodoc.KeyID, ilodoc.Str(newID))
	rewriteReferences(doc, oldID, newID)
	return nil
}

// MoveResource reparents the resource subtree. Moving a resource under
// itself or one of its descendants is rejected.
func MoveResource(doc *ilodoc.Document, identifier, newParent string) error {
	return MoveResourceStyled(doc, identifier, newParent, false)
}

// MoveResourceStyled moves the resource and, when inheritStyle is set,
// drops its explicit style so it follows the new parent's styling.
func MoveResourceStyled(doc *ilodoc.Document, identifier, newParent string, inheritStyle bool) error {
	loc, err := index.Resource(doc, identifier)
	if err != nil {
		return err
	}
	container, err := moveDestination(doc, loc, newParent)
	if err != nil {
		return err
	}
	detachResource(loc)
	container.Content = append(container.Content, loc.Node)
	if inheritStyle {
		ilodoc.MapDelete(loc.Node, "style")
	}
	return nil
}

// DeleteResource removes the resource and strips references to it from
// perspectives. A resource with children requires deleteSubtree; the
// deleted subtree's identifiers are stripped as well. Stripping that
// would leave a relation with neither from nor to fails the operation.
func DeleteResource(doc *ilodoc.Document, identifier string, deleteSubtree bool) error {
	loc, err := index.Resource(doc, identifier)
	if err != nil {
		return err
	}
	children := ilodoc.MapGet(loc.Node, ilodoc.KeyChildren)
	if ilodoc.IsSeq(children) && len(children.Content) > 0 && !deleteSubtree {
		return errSchema("resource %s has children (pass deleteSubtree to remove the whole subtree)", loc.Identifier)
	}

	doomed := map[string]bool{loc.Identifier: true}
	for _, d := range descendants(loc.Node) {
		if id := index.ResourceIdentifier(d); id != "" {
			doomed[refs.NormalizeIdent(id)] = true
		}
	}

	if err := checkStripSurvivors(doc, doomed); err != nil {
		return err
	}
	detachResource(loc)
	stripReferences(doc, doomed)
	return nil
}

// CloneResourceSpec configures a resource clone.
type CloneResourceSpec struct {
	ID           string
	NewID        string
	NewName      string
	NewParent    string
	WithChildren bool
}

// CloneResource copies a resource under NewID. Without WithChildren the
// clone carries no children; with it, every descendant with an explicit
// id is rejected since the copy would duplicate that id.
func CloneResource(doc *ilodoc.Document, spec CloneResourceSpec) error {
	loc, err := index.Resource(doc, spec.ID)
	if err != nil {
		return err
	}
	if err := checkNewIdentifier(doc, spec.NewID); err != nil {
		return err
	}
	if spec.WithChildren {
		for _, d := range descendants(loc.Node) {
			if id := ilodoc.StrValue(d, ilodoc.KeyID); id != "" {
				return errAlreadyExists("cloning subtree would duplicate id %s (clone without children or rename the descendant first)", id)
			}
		}
	}

	clone := ilodoc.Clone(loc.Node)
	ilodoc.ClearAnchors(clone)
	if !spec.WithChildren {
		ilodoc.MapDelete(clone, ilodoc.KeyChildren)
	}
	ilodoc.MapSet(clone, ilodoc.KeyID, ilodoc.Str(spec.NewID))
	if spec.NewName != "" {
		ilodoc.MapSet(clone, ilodoc.KeyName, ilodoc.Str(spec.NewName))
	}

	container := loc.Container
	if spec.NewParent != "" {
		container, err = resolveParentContainer(doc, spec.NewParent)
		if err != nil {
			return err
		}
	}
	container.Content = append(container.Content, clone)
	return nil
}

// checkNewIdentifier rejects empty, special, restricted, and already
// taken identifiers.
func checkNewIdentifier(doc *ilodoc.Document, id string) error {
	if strings.TrimSpace(id) == "" {
		return errSchema("resource id must not be empty")
	}
	if refs.IsSpecialToken(id) {
		return errInvalidRef("%s is a reserved token and cannot be a resource id", id)
	}
	if ch := refs.FirstRestrictedChar(id); ch != 0 {
		return errInvalidRef("resource id %s contains restricted character %q", id, ch)
	}
	if locs := index.ByIdentifier(doc)[refs.NormalizeIdent(id)]; len(locs) > 0 {
		return errAlreadyExists("identifier already in use: %s (at %s)", id, locs[0].Path)
	}
	return nil
}

// isRootParent treats "", "^", and the none token as the top level.
func isRootParent(parent string) bool {
	return parent == "" || parent == RootParent || refs.NormalizeIdent(parent) == "none"
}

// resolveParentContainer returns the children sequence of the parent, or
// the top-level resources list for root destinations.
func resolveParentContainer(doc *ilodoc.Document, parent string) (*yaml.Node, error) {
	if isRootParent(parent) {
		return doc.EnsureResources(), nil
	}
	loc, err := index.Resource(doc, parent)
	if err != nil {
		return nil, err
	}
	return index.EnsureChildren(loc.Node), nil
}

func moveDestination(doc *ilodoc.Document, loc index.ResourceLocation, newParent string) (*yaml.Node, error) {
	if isRootParent(newParent) {
		return doc.EnsureResources(), nil
	}
	dest, err := index.Resource(doc, newParent)
	if err != nil {
		return nil, err
	}
	if dest.Node == loc.Node {
		return nil, errSchema("cannot move %s under itself", loc.Identifier)
	}
	for _, d := range descendants(loc.Node) {
		if d == dest.Node {
			return nil, errSchema("cannot move %s under its own descendant %s", loc.Identifier, dest.Identifier)
		}
	}
	return index.EnsureChildren(dest.Node), nil
}

// detachResource removes the node from its container and drops an empty
// children list left behind on the former parent.
func detachResource(loc index.ResourceLocation) {
	ilodoc.SeqRemove(loc.Container, loc.Index)
	if loc.Parent != nil {
		remaining := ilodoc.MapGet(loc.Parent, ilodoc.KeyChildren)
		if ilodoc.IsSeq(remaining) && len(remaining.Content) == 0 {
			ilodoc.MapDelete(loc.Parent, ilodoc.KeyChildren)
		}
	}
}

// descendants returns every resource node strictly below the given one.
func descendants(resource *yaml.Node) []*yaml.Node {
	var out []*yaml.Node
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		children := ilodoc.MapGet(n, ilodoc.KeyChildren)
		if !ilodoc.IsSeq(children) {
			return
		}
		for _, child := range children.Content {
			if !ilodoc.IsMap(child) {
				continue
			}
			out = append(out, child)
			walk(child)
		}
	}
	walk(resource)
	return out
}

// rewriteReferences replaces the identifier in every reference-bearing
// field, including instanceOf and context fields. Bracket literals are
// never touched.
func rewriteReferences(doc *ilodoc.Document, oldID, newID string) {
	fields := reffields.All(doc, reffields.Options{IncludeInstanceOf: true})
	fields = append(fields, reffields.ContextFields(doc)...)
	for _, field := range fields {
		value := field.Value()
		if !refs.ContainsIdentifier(value, oldID) {
			continue
		}
		field.SetValue(refs.ReplaceIdentifier(value, oldID, newID))
	}
}

// stripReferences removes reference components naming any doomed
// identifier. Emptied from/to endpoints must leave the other endpoint
// intact, emptied alias and override rows are dropped.
func stripReferences(doc *ilodoc.Document, doomed map[string]bool) {
	emptied := make(map[*yaml.Node]bool)
	for _, field := range reffields.All(doc, reffields.Options{IncludeInstanceOf: true}) {
		value := field.Value()
		stripped, changed := stripDoomedParts(value, doomed)
		if !changed {
			continue
		}
		if stripped != "" {
			field.SetValue(stripped)
			continue
		}
		switch field.Key {
		case "resourceId", "for":
			// Removing the defining key makes the row meaningless, so
			// the whole row goes.
			emptied[field.Container] = true
		default:
			ilodoc.MapDelete(field.Container, field.Key)
		}
	}
	if len(emptied) > 0 {
		removeEmptiedRows(doc, emptied)
	}
}

// checkStripSurvivors rejects a deletion that would leave a relation
// with neither from nor to. It runs before any node is touched so a
// failed delete leaves the document unchanged.
func checkStripSurvivors(doc *ilodoc.Document, doomed map[string]bool) error {
	seen := make(map[*yaml.Node]bool)
	for _, field := range reffields.All(doc, reffields.Options{IncludeInstanceOf: true}) {
		if field.Key != "from" && field.Key != "to" {
			continue
		}
		if seen[field.Container] {
			continue
		}
		seen[field.Container] = true
		from, _ := stripDoomedParts(ilodoc.RawStrValue(field.Container, "from"), doomed)
		to, _ := stripDoomedParts(ilodoc.RawStrValue(field.Container, "to"), doomed)
		if strings.TrimSpace(from) == "" && strings.TrimSpace(to) == "" {
			return errMalformedRelation("deleting resource would leave a relation in perspective %s with neither from nor to", field.Perspective)
		}
	}
	return nil
}

func stripDoomedParts(value string, doomed map[string]bool) (string, bool) {
	parts := refs.SplitList(value)
	var kept []string
	changed := false
	for _, part := range parts {
		hit := false
		for _, c := range refs.ParseComponents(part) {
			if c.Literal {
				continue
			}
			if doomed[refs.NormalizeIdent(c.Token)] {
				hit = true
				break
			}
		}
		if hit {
			changed = true
			continue
		}
		kept = append(kept, part)
	}
	if !changed {
		return value, false
	}
	return strings.Join(kept, ", "), true
}

func removeEmptiedRows(doc *ilodoc.Document, emptied map[*yaml.Node]bool) {
	perspectives := doc.Perspectives()
	if !ilodoc.IsSeq(perspectives) {
		return
	}
	for _, perspective := range perspectives.Content {
		if !ilodoc.IsMap(perspective) {
			continue
		}
		for _, key := range []string{ilodoc.KeyOverrides, ilodoc.KeyAliases} {
			rows := ilodoc.MapGet(perspective, key)
			if !ilodoc.IsSeq(rows) {
				continue
			}
			for i := len(rows.Content) - 1; i >= 0; i-- {
				if emptied[rows.Content[i]] {
					ilodoc.SeqRemove(rows, i)
				}
			}
			if len(rows.Content) == 0 {
				ilodoc.MapDelete(perspective, key)
			}
		}
	}
}
