package ops

import (
	"sort"
	"strings"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

// Target selects the perspectives and template contexts a batch relation
// operation applies to. Perspectives may be explicit identifiers or the
// single wildcard "*". Contexts feed {context} template expansion.
type Target struct {
	Perspectives []string
	Contexts     []string
}

func (t Target) resolvePerspectives(doc *ilodoc.Document) ([]string, error) {
	if len(t.Perspectives) == 0 {
		return nil, errSchema("target.perspectives must not be empty")
	}
	if len(t.Perspectives) == 1 && t.Perspectives[0] == "*" {
		perspectives := ilodoc.MapGet(doc.Map, ilodoc.KeyPerspectives)
		if !ilodoc.IsSeq(perspectives) {
			return nil, nil
		}
		var ids []string
		for _, node := range perspectives.Content {
			if !ilodoc.IsMap(node) {
				continue
			}
			if id := index.PerspectiveIdentifier(node); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}
	// Explicit identifiers are verified up front so a bad target fails
	// before any perspective is touched.
	for _, id := range t.Perspectives {
		if id == "*" {
			return nil, errSchema("wildcard * must be the only perspectives entry")
		}
		if _, err := index.Perspective(doc, id); err != nil {
			return nil, err
		}
	}
	return t.Perspectives, nil
}

func (t Target) resolveContexts(doc *ilodoc.Document) ([]string, error) {
	if len(t.Contexts) == 0 {
		return nil, nil
	}
	known := index.ContextNames(doc)
	for _, name := range t.Contexts {
		if !known[name] {
			return nil, errNotFound("unknown context in target: %s", name)
		}
	}
	return t.Contexts, nil
}

const contextPlaceholder = "{context}"

// templateUsesContext reports whether any string field carries the
// {context} placeholder.
func templateUsesContext(template RelationPayload) bool {
	for _, value := range template {
		if s, ok := value.(string); ok && strings.Contains(s, contextPlaceholder) {
			return true
		}
	}
	return false
}

func renderPayload(template RelationPayload, context string) RelationPayload {
	rendered := make(RelationPayload, len(template))
	for key, value := range template {
		if s, ok := value.(string); ok {
			rendered[key] = strings.ReplaceAll(s, contextPlaceholder, context)
			continue
		}
		rendered[key] = value
	}
	return rendered
}

// expandPayloads renders the template once per context, deduplicating by
// value equality so templates without {context} collapse to one payload.
// A template that uses {context} with no contexts set is an error.
func expandPayloads(template RelationPayload, contexts []string) ([]RelationPayload, error) {
	if !templateUsesContext(template) {
		return []RelationPayload{template}, nil
	}
	if len(contexts) == 0 {
		return nil, errTemplate("template uses {context} but target.contexts is empty")
	}
	var out []RelationPayload
	seen := make(map[string]bool)
	for _, context := range contexts {
		rendered := renderPayload(template, context)
		key := payloadKey(rendered)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rendered)
	}
	return out, nil
}

type editSpec struct {
	match RelationPayload
	edit  RelationEdit
}

// expandEditSpecs renders match and set payloads in lockstep per context,
// so {context} in match pairs with the same context in set.
func expandEditSpecs(match RelationPayload, edit RelationEdit, contexts []string) ([]editSpec, error) {
	usesContext := templateUsesContext(match) || templateUsesContext(edit.Set)
	if !usesContext {
		return []editSpec{{match: match, edit: edit}}, nil
	}
	if len(contexts) == 0 {
		return nil, errTemplate("match/set use {context} but target.contexts is empty")
	}
	var out []editSpec
	seen := make(map[string]bool)
	for _, context := range contexts {
		spec := editSpec{
			match: renderPayload(match, context),
			edit: RelationEdit{
				Set:   renderPayload(edit.Set, context),
				Clear: edit.Clear,
			},
		}
		key := payloadKey(spec.match) + "\x02" + payloadKey(spec.edit.Set)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, spec)
	}
	return out, nil
}

func payloadKey(payload RelationPayload) string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteByte('\x00')
		if s, ok := payload[key].(string); ok {
			b.WriteString(s)
		} else if payload[key] == true {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		b.WriteByte('\x01')
	}
	return b.String()
}
