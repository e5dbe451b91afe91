package ops

import (
	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/refs"
)

// CreateGroupSpec describes a new grouping resource and the existing
// resources to move under it.
type CreateGroupSpec struct {
	ID       string
	Name     string
	Subtitle string
	Parent   string
	Members  []string
}

// CreateGroup creates a resource and moves the members under it. The
// members are verified before anything is written, so a bad member list
// leaves the document untouched.
func CreateGroup(doc *ilodoc.Document, spec CreateGroupSpec) error {
	for _, member := range spec.Members {
		if _, err := index.Resource(doc, member); err != nil {
			return err
		}
	}
	if err := checkMemberOverlap(doc, spec.Members, spec.Parent); err != nil {
		return err
	}
	if err := CreateResource(doc, CreateResourceSpec{
		ID:       spec.ID,
		Name:     spec.Name,
		Subtitle: spec.Subtitle,
		Parent:   spec.Parent,
	}); err != nil {
		return err
	}
	for _, member := range spec.Members {
		if err := MoveResource(doc, member, spec.ID); err != nil {
			return err
		}
	}
	return nil
}

// MoveMany reparents several resources under one parent. Every move is
// validated before the first one happens: unknown or duplicate ids, a
// missing destination, and destination-inside-a-moved-subtree all fail
// with the document unchanged.
func MoveMany(doc *ilodoc.Document, identifiers []string, newParent string) error {
	if len(identifiers) == 0 {
		return errSchema("move requires at least one resource id")
	}
	seen := make(map[string]bool)
	locs := make([]index.ResourceLocation, 0, len(identifiers))
	for _, identifier := range identifiers {
		norm := refs.NormalizeIdent(identifier)
		if seen[norm] {
			return errSchema("duplicate id in move list: %s", identifier)
		}
		seen[norm] = true
		loc, err := index.Resource(doc, identifier)
		if err != nil {
			return err
		}
		locs = append(locs, loc)
	}
	for _, loc := range locs {
		if _, err := moveDestination(doc, loc, newParent); err != nil {
			return err
		}
	}
	// Locations go stale as soon as siblings are detached, so each move
	// re-resolves through MoveResource.
	for _, identifier := range identifiers {
		if err := MoveResource(doc, identifier, newParent); err != nil {
			return err
		}
	}
	return nil
}

// checkMemberOverlap rejects a group parent that sits inside one of the
// member subtrees.
func checkMemberOverlap(doc *ilodoc.Document, members []string, parent string) error {
	if isRootParent(parent) {
		return nil
	}
	dest, err := index.Resource(doc, parent)
	if err != nil {
		return err
	}
	for _, member := range members {
		loc, err := index.Resource(doc, member)
		if err != nil {
			return err
		}
		if loc.Node == dest.Node {
			return errSchema("group parent %s is also a member", parent)
		}
		for _, d := range descendants(loc.Node) {
			if d == dest.Node {
				return errSchema("group parent %s is inside member subtree %s", parent, member)
			}
		}
	}
	return nil
}
