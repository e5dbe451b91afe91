package ops

import (
	"slices"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/refs"
)

// OverrideInfo is one row of an override listing.
type OverrideInfo struct {
	Perspective string
	ResourceID  string
	ParentID    string
	Scale       float64
	HasScale    bool
}

// ListOverrides returns the overrides of one perspective, or of every
// perspective when perspectiveID is empty.
func ListOverrides(doc *ilodoc.Document, perspectiveID string) ([]OverrideInfo, error) {
	locs := index.Perspectives(doc)
	if perspectiveID != "" {
		loc, err := index.Perspective(doc, perspectiveID)
		if err != nil {
			return nil, err
		}
		locs = []index.PerspectiveLocation{loc}
	}
	var out []OverrideInfo
	for _, loc := range locs {
		overrides := ilodoc.MapGet(loc.Node, ilodoc.KeyOverrides)
		if !ilodoc.IsSeq(overrides) {
			continue
		}
		for _, row := range overrides.Content {
			if !ilodoc.IsMap(row) {
				continue
			}
			info := OverrideInfo{
				Perspective: loc.Identifier,
				ResourceID:  ilodoc.RawStrValue(row, "resourceId"),
				ParentID:    ilodoc.RawStrValue(row, "parentId"),
			}
			info.Scale, info.HasScale = ilodoc.FloatValue(row, "scale")
			out = append(out, info)
		}
	}
	return out, nil
}

// OverrideSpec carries the optional fields of an override row.
type OverrideSpec struct {
	ParentID string
	Scale    float64
	HasScale bool
}

// AddOverride appends an override for the resource. A perspective holds
// at most one override per resource.
func AddOverride(doc *ilodoc.Document, perspectiveID, resourceID string, spec OverrideSpec) error {
	if resourceID == "" {
		return errSchema("override requires a resourceId")
	}
	if spec.ParentID == "" && !spec.HasScale {
		return errSchema("override requires parentId or scale")
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	if row, _ := findOverrideRow(perspective.Node, resourceID); row != nil {
		return errAlreadyExists("override already defined in perspective %s for %s (edit it instead)", perspective.Identifier, resourceID)
	}
	rowNode := ilodoc.Map()
	ilodoc.MapSet(rowNode, "resourceId", ilodoc.Str(resourceID))
	if spec.ParentID != "" {
		ilodoc.MapSet(rowNode, "parentId", ilodoc.Str(spec.ParentID))
	}
	if spec.HasScale {
		ilodoc.MapSet(rowNode, "scale", ilodoc.Float(spec.Scale))
	}
	overrides := ilodoc.EnsureSeq(perspective.Node, ilodoc.KeyOverrides)
	overrides.Content = append(overrides.Content, rowNode)
	return nil
}

// EditOverride updates the override row for the resource. Clear fields
// are removed, set fields replace; a field cannot be both. The row must
// keep parentId or scale.
func EditOverride(doc *ilodoc.Document, perspectiveID, resourceID string, set OverrideSpec, clear []string) error {
	for _, field := range clear {
		if field != "parentId" && field != "scale" {
			return errSchema("invalid clear field: %s (only parentId and scale can be cleared)", field)
		}
		if (field == "parentId" && set.ParentID != "") || (field == "scale" && set.HasScale) {
			return errSchema("field %s cannot be both set and cleared in one call", field)
		}
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	row, _ := findOverrideRow(perspective.Node, resourceID)
	if row == nil {
		return errNotFound("override not found in perspective %s for %s", perspective.Identifier, resourceID)
	}
	keepParent := set.ParentID != "" || (ilodoc.MapHas(row, "parentId") && !slices.Contains(clear, "parentId"))
	keepScale := set.HasScale || (ilodoc.MapHas(row, "scale") && !slices.Contains(clear, "scale"))
	if !keepParent && !keepScale {
		return errSchema("override must keep parentId or scale (remove the override instead)")
	}
	for _, field := range clear {
		ilodoc.MapDelete(row, field)
	}
	if set.ParentID != "" {
		ilodoc.MapSet(row, "parentId", ilodoc.Str(set.ParentID))
	}
	if set.HasScale {
		ilodoc.MapSet(row, "scale", ilodoc.Float(set.Scale))
	}
	return nil
}

// RemoveOverride removes the override row for the resource.
func RemoveOverride(doc *ilodoc.Document, perspectiveID, resourceID string) error {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	row, idx := findOverrideRow(perspective.Node, resourceID)
	if row == nil {
		return errNotFound("override not found in perspective %s for %s", perspective.Identifier, resourceID)
	}
	overrides := ilodoc.MapGet(perspective.Node, ilodoc.KeyOverrides)
	ilodoc.SeqRemove(overrides, idx)
	if len(overrides.Content) == 0 {
		ilodoc.MapDelete(perspective.Node, ilodoc.KeyOverrides)
	}
	return nil
}

func findOverrideRow(perspective *yaml.Node, resourceID string) (*yaml.Node, int) {
	overrides := ilodoc.MapGet(perspective, ilodoc.KeyOverrides)
	if !ilodoc.IsSeq(overrides) {
		return nil, -1
	}
	want := refs.NormalizeIdent(resourceID)
	for i, row := range overrides.Content {
		if !ilodoc.IsMap(row) {
			continue
		}
		if refs.NormalizeIdent(ilodoc.RawStrValue(row, "resourceId")) == want {
			return row, i
		}
	}
	return nil, -1
}
