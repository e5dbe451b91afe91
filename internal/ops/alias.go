package ops

import (
	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/refs"
)

// AliasInfo is one row of an alias listing.
type AliasInfo struct {
	Perspective string
	Alias       string
	For         string
}

// ListAliases returns the aliases of one perspective, or of every
// perspective when perspectiveID is empty.
func ListAliases(doc *ilodoc.Document, perspectiveID string) ([]AliasInfo, error) {
	locs := index.Perspectives(doc)
	if perspectiveID != "" {
		loc, err := index.Perspective(doc, perspectiveID)
		if err != nil {
			return nil, err
		}
		locs = []index.PerspectiveLocation{loc}
	}
	var out []AliasInfo
	for _, loc := range locs {
		aliases := ilodoc.MapGet(loc.Node, ilodoc.KeyAliases)
		if !ilodoc.IsSeq(aliases) {
			continue
		}
		for _, row := range aliases.Content {
			if !ilodoc.IsMap(row) {
				continue
			}
			out = append(out, AliasInfo{
				Perspective: loc.Identifier,
				Alias:       ilodoc.StrValue(row, "alias"),
				For:         ilodoc.RawStrValue(row, "for"),
			})
		}
	}
	return out, nil
}

// AddAlias appends an alias row to the perspective. Alias names must be
// unique within the perspective and free of restricted characters.
func AddAlias(doc *ilodoc.Document, perspectiveID, alias, forRef string) error {
	if alias == "" || forRef == "" {
		return errSchema("alias requires both alias and for")
	}
	if ch := refs.FirstRestrictedChar(alias); ch != 0 {
		return errInvalidRef("alias %s contains restricted character %q", alias, ch)
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	if row, _ := findAliasRow(perspective.Node, alias); row != nil {
		return errAlreadyExists("alias already defined in perspective %s: %s", perspective.Identifier, alias)
	}
	rowNode := ilodoc.Map()
	ilodoc.MapSet(rowNode, "alias", ilodoc.Str(alias))
	ilodoc.MapSet(rowNode, "for", ilodoc.Str(forRef))
	aliases := ilodoc.EnsureSeq(perspective.Node, ilodoc.KeyAliases)
	aliases.Content = append(aliases.Content, rowNode)
	return nil
}

// EditAlias replaces the target expression of an existing alias.
func EditAlias(doc *ilodoc.Document, perspectiveID, alias, forRef string) error {
	if forRef == "" {
		return errSchema("alias edit requires a non-empty for")
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	row, _ := findAliasRow(perspective.Node, alias)
	if row == nil {
		return errNotFound("alias not found in perspective %s: %s", perspective.Identifier, alias)
	}
	ilodoc.MapSet(row, "for", ilodoc.Str(forRef))
	return nil
}

// RemoveAlias removes an alias row from the perspective.
func RemoveAlias(doc *ilodoc.Document, perspectiveID, alias string) error {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	row, idx := findAliasRow(perspective.Node, alias)
	if row == nil {
		return errNotFound("alias not found in perspective %s: %s", perspective.Identifier, alias)
	}
	aliases := ilodoc.MapGet(perspective.Node, ilodoc.KeyAliases)
	ilodoc.SeqRemove(aliases, idx)
	if len(aliases.Content) == 0 {
		ilodoc.MapDelete(perspective.Node, ilodoc.KeyAliases)
	}
	return nil
}

func findAliasRow(perspective *yaml.Node, alias string) (*yaml.Node, int) {
	aliases := ilodoc.MapGet(perspective, ilodoc.KeyAliases)
	if !ilodoc.IsSeq(aliases) {
		return nil, -1
	}
	want := refs.NormalizeIdent(alias)
	for i, row := range aliases.Content {
		if !ilodoc.IsMap(row) {
			continue
		}
		if refs.NormalizeIdent(ilodoc.StrValue(row, "alias")) == want {
			return row, i
		}
	}
	return nil, -1
}
