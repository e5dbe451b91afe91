package ops

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

// relationFieldOrder is the canonical key order for emitted relations.
var relationFieldOrder = []string{
	"from", "to", "via", "label", "description", "arrowDirection", "color", "secondary",
}

var relationEditableFields = map[string]bool{
	"from":           true,
	"to":             true,
	"via":            true,
	"label":          true,
	"description":    true,
	"arrowDirection": true,
	"color":          true,
	"secondary":      true,
}

// ArrowDirections are the accepted arrowDirection values.
var ArrowDirections = []string{"forward", "backward", "bidirectional"}

// ValidArrowDirection reports whether value is a known arrow direction.
func ValidArrowDirection(value string) bool {
	for _, d := range ArrowDirections {
		if d == value {
			return true
		}
	}
	return false
}

// RelationPayload holds relation fields keyed by their document names.
// Values are strings, except "secondary" which is a bool.
type RelationPayload map[string]any

// Validate checks field names, the arrow direction enum, and the
// from/to invariant when requireEndpoint is set.
func (p RelationPayload) Validate(requireEndpoint bool) error {
	for key := range p {
		if !relationEditableFields[key] {
			return errSchema("unknown relation field: %s", key)
		}
	}
	if dir, ok := p["arrowDirection"].(string); ok && !ValidArrowDirection(dir) {
		return errSchema("invalid arrowDirection: %s (expected forward|backward|bidirectional)", dir)
	}
	if requireEndpoint {
		if _, hasFrom := p["from"]; !hasFrom {
			if _, hasTo := p["to"]; !hasTo {
				return errMalformedRelation("relation requires from or to (set from and/or to)")
			}
		}
	}
	return nil
}

// AddRelation appends a relation built from payload to the perspective.
func AddRelation(doc *ilodoc.Document, perspectiveID string, payload RelationPayload) error {
	if err := payload.Validate(true); err != nil {
		return err
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	relations := ilodoc.EnsureSeq(perspective.Node, ilodoc.KeyRelations)
	relations.Content = append(relations.Content, buildRelationNode(payload))
	return nil
}

// RemoveRelation removes the relation at the 1-based index.
func RemoveRelation(doc *ilodoc.Document, perspectiveID string, index1 int) error {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	relations := ilodoc.MapGet(perspective.Node, ilodoc.KeyRelations)
	if !ilodoc.IsSeq(relations) {
		return errNotFound("perspective has no relations: %s (nothing to remove)", perspective.Identifier)
	}
	idx, err := checkIndex(index1, len(relations.Content))
	if err != nil {
		return err
	}
	ilodoc.SeqRemove(relations, idx)
	return nil
}

// RelationEdit describes an in-place edit of one relation: fields to set
// and fields to clear. Setting and clearing the same field is rejected.
type RelationEdit struct {
	Set   RelationPayload
	Clear []string
}

func (e RelationEdit) validate() error {
	if len(e.Set) == 0 && len(e.Clear) == 0 {
		return errSchema("edit requires set fields or non-empty clear")
	}
	if err := e.Set.Validate(false); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, field := range e.Clear {
		if !relationEditableFields[field] {
			return errSchema("invalid clear field: %s", field)
		}
		if seen[field] {
			return errSchema("clear has duplicates (each field can appear once)")
		}
		seen[field] = true
		if _, ok := e.Set[field]; ok {
			return errSchema("field %s cannot be both set and cleared in one call", field)
		}
	}
	return nil
}

// EditRelation applies the edit to the relation at the 1-based index. The
// edited relation must keep at least one of from/to.
func EditRelation(doc *ilodoc.Document, perspectiveID string, index1 int, edit RelationEdit) error {
	if err := edit.validate(); err != nil {
		return err
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	relations := ilodoc.MapGet(perspective.Node, ilodoc.KeyRelations)
	if !ilodoc.IsSeq(relations) {
		return errNotFound("perspective has no relations: %s (nothing to edit)", perspective.Identifier)
	}
	idx, err := checkIndex(index1, len(relations.Content))
	if err != nil {
		return err
	}
	relation := relations.Content[idx]
	if !ilodoc.IsMap(relation) {
		return errSchema("relation at index %d is not a mapping/object", index1)
	}
	return patchRelation(relation, edit)
}

func patchRelation(relation *yaml.Node, edit RelationEdit) error {
	// Probe the result before touching the node so a violated invariant
	// leaves the relation unchanged.
	has := func(key string) bool {
		if _, ok := edit.Set[key]; ok {
			return true
		}
		for _, cleared := range edit.Clear {
			if cleared == key {
				return false
			}
		}
		return ilodoc.MapHas(relation, key)
	}
	if !has("from") && !has("to") {
		return errMalformedRelation("relation must keep from or to")
	}

	for _, field := range edit.Clear {
		ilodoc.MapDelete(relation, field)
	}
	for _, key := range relationFieldOrder {
		value, ok := edit.Set[key]
		if !ok {
			continue
		}
		ilodoc.MapSet(relation, key, payloadValueNode(value))
	}
	return nil
}

// RelationMatches reports whether the relation equals the payload on every
// specified field. Absent "secondary" counts as false.
func RelationMatches(relation *yaml.Node, match RelationPayload) bool {
	for key, expected := range match {
		if key == "secondary" {
			want, _ := expected.(bool)
			if ilodoc.BoolValue(relation, "secondary") != want {
				return false
			}
			continue
		}
		want, _ := expected.(string)
		if ilodoc.RawStrValue(relation, key) != want {
			return false
		}
	}
	return true
}

// MatchRelations returns the 1-based indices of relations matching the
// payload, in order.
func MatchRelations(doc *ilodoc.Document, perspectiveID string, match RelationPayload) ([]int, error) {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return nil, err
	}
	relations := ilodoc.MapGet(perspective.Node, ilodoc.KeyRelations)
	if !ilodoc.IsSeq(relations) {
		return nil, nil
	}
	var indices []int
	for i, relation := range relations.Content {
		if !ilodoc.IsMap(relation) {
			continue
		}
		if RelationMatches(relation, match) {
			indices = append(indices, i+1)
		}
	}
	return indices, nil
}

// RelationInfo is one row of a relation listing.
type RelationInfo struct {
	Perspective string
	Index       int
	Fields      map[string]any
}

// ListRelations returns the relations of one perspective, or of every
// perspective when perspectiveID is empty, filtered by match fields.
// Indices are 1-based within each perspective.
func ListRelations(doc *ilodoc.Document, perspectiveID string, match RelationPayload) ([]RelationInfo, error) {
	if err := match.Validate(false); err != nil {
		return nil, err
	}
	locs := index.Perspectives(doc)
	if perspectiveID != "" {
		loc, err := index.Perspective(doc, perspectiveID)
		if err != nil {
			return nil, err
		}
		locs = []index.PerspectiveLocation{loc}
	}
	var out []RelationInfo
	for _, loc := range locs {
		relations := ilodoc.MapGet(loc.Node, ilodoc.KeyRelations)
		if !ilodoc.IsSeq(relations) {
			continue
		}
		for i, relation := range relations.Content {
			if !ilodoc.IsMap(relation) || !RelationMatches(relation, match) {
				continue
			}
			fields := make(map[string]any)
			for _, key := range relationFieldOrder {
				if !ilodoc.MapHas(relation, key) {
					continue
				}
				if key == "secondary" {
					fields[key] = ilodoc.BoolValue(relation, key)
					continue
				}
				fields[key] = ilodoc.RawStrValue(relation, key)
			}
			out = append(out, RelationInfo{Perspective: loc.Identifier, Index: i + 1, Fields: fields})
		}
	}
	return out, nil
}

// AddRelationMany expands the template over the target and appends one
// relation per rendered payload to every selected perspective. Returns
// the number of relations added.
func AddRelationMany(doc *ilodoc.Document, target Target, template RelationPayload) (int, error) {
	if err := template.Validate(true); err != nil {
		return 0, err
	}
	perspectiveIDs, err := target.resolvePerspectives(doc)
	if err != nil {
		return 0, err
	}
	contexts, err := target.resolveContexts(doc)
	if err != nil {
		return 0, err
	}
	payloads, err := expandPayloads(template, contexts)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, perspectiveID := range perspectiveIDs {
		for _, payload := range payloads {
			if err := AddRelation(doc, perspectiveID, payload); err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}

// RemoveRelationsMatch removes every relation matching any rendered match
// payload across the target. With requireMatch, zero removals is an error.
func RemoveRelationsMatch(doc *ilodoc.Document, target Target, match RelationPayload, requireMatch bool) (int, error) {
	if len(match) == 0 {
		return 0, errSchema("match must define at least one field to compare")
	}
	if err := match.Validate(false); err != nil {
		return 0, err
	}
	perspectiveIDs, err := target.resolvePerspectives(doc)
	if err != nil {
		return 0, err
	}
	contexts, err := target.resolveContexts(doc)
	if err != nil {
		return 0, err
	}
	matchPayloads, err := expandPayloads(match, contexts)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, perspectiveID := range perspectiveIDs {
		perspective, err := index.Perspective(doc, perspectiveID)
		if err != nil {
			return removed, err
		}
		relations := ilodoc.MapGet(perspective.Node, ilodoc.KeyRelations)
		if !ilodoc.IsSeq(relations) {
			continue
		}
		for i := len(relations.Content) - 1; i >= 0; i-- {
			relation := relations.Content[i]
			if !ilodoc.IsMap(relation) {
				continue
			}
			for _, payload := range matchPayloads {
				if RelationMatches(relation, payload) {
					ilodoc.SeqRemove(relations, i)
					removed++
					break
				}
			}
		}
	}

	if requireMatch && removed == 0 {
		return 0, errNoMatch("no relations matched for relation.remove-match (adjust match/target or set requireMatch=false)")
	}
	return removed, nil
}

// EditRelationsMatch edits every relation matching any rendered match
// payload across the target. With requireMatch, zero edits is an error.
func EditRelationsMatch(doc *ilodoc.Document, target Target, match RelationPayload, edit RelationEdit, requireMatch bool) (int, error) {
	if len(match) == 0 {
		return 0, errSchema("match must define at least one field to compare")
	}
	if err := match.Validate(false); err != nil {
		return 0, err
	}
	if err := edit.validate(); err != nil {
		return 0, err
	}
	perspectiveIDs, err := target.resolvePerspectives(doc)
	if err != nil {
		return 0, err
	}
	contexts, err := target.resolveContexts(doc)
	if err != nil {
		return 0, err
	}
	specs, err := expandEditSpecs(match, edit, contexts)
	if err != nil {
		return 0, err
	}

	edited := 0
	for _, perspectiveID := range perspectiveIDs {
		perspective, err := index.Perspective(doc, perspectiveID)
		if err != nil {
			return edited, err
		}
		relations := ilodoc.MapGet(perspective.Node, ilodoc.KeyRelations)
		if !ilodoc.IsSeq(relations) {
			continue
		}
		for _, relation := range relations.Content {
			if !ilodoc.IsMap(relation) {
				continue
			}
			for _, spec := range specs {
				if !RelationMatches(relation, spec.match) {
					continue
				}
				before := relationSnapshot(relation)
				if err := patchRelation(relation, spec.edit); err != nil {
					return edited, err
				}
				if relationSnapshot(relation) != before {
					edited++
				}
				break
			}
		}
	}

	if requireMatch && edited == 0 {
		return 0, errNoMatch("no relations matched for relation.edit-match (adjust match/target or set requireMatch=false)")
	}
	return edited, nil
}

func buildRelationNode(payload RelationPayload) *yaml.Node {
	relation := ilodoc.Map()
	for _, key := range relationFieldOrder {
		value, ok := payload[key]
		if !ok {
			continue
		}
		ilodoc.MapSet(relation, key, payloadValueNode(value))
	}
	return relation
}

func payloadValueNode(value any) *yaml.Node {
	if b, ok := value.(bool); ok {
		return ilodoc.Bool(b)
	}
	return ilodoc.Str(fmt.Sprintf("%v", value))
}

func relationSnapshot(relation *yaml.Node) string {
	out := ""
	for i := 0; i+1 < len(relation.Content); i += 2 {
		out += relation.Content[i].Value + "\x00" + relation.Content[i+1].Value + "\x01"
	}
	return out
}

// checkIndex converts a 1-based index into a 0-based one, rejecting
// out-of-range values.
func checkIndex(index1, size int) (int, error) {
	if index1 < 1 || index1 > size {
		return 0, errIndexRange("relation index out of range: %d (valid range: 1..%d)", index1, size)
	}
	return index1 - 1, nil
}
