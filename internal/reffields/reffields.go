// Package reffields enumerates the reference-bearing string fields of a
// diagram as one declared table, so cross-cutting rewrites (id renames,
// impact analysis, broken-reference checks) live in one place.
package reffields

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

// Walkthrough slides carry several reference-like keys; this is the
// validated subset.
var walkthroughReferenceKeys = map[string]bool{
	"select":    true,
	"expand":    true,
	"hide":      true,
	"focus":     true,
	"highlight": true,
	"include":   true,
	"exclude":   true,
	"root":      true,
	"center":    true,
	"zoomTo":    true,
}

var relationReferenceKeys = []string{"from", "to", "via"}
var overrideReferenceKeys = []string{"resourceId", "parentId"}
var stepReferenceKeys = []string{"to", "toAndBack", "toAsync", "restartAt"}

// Field is a mutable reference-bearing field.
type Field struct {
	Container   *yaml.Node
	Key         string
	Path        string
	Perspective string
	Section     string
}

// Value returns the field's current string value, or "".
func (f Field) Value() string {
	return ilodoc.RawStrValue(f.Container, f.Key)
}

// SetValue rewrites the field in place.
func (f Field) SetValue(value string) {
	if v := ilodoc.MapGet(f.Container, f.Key); ilodoc.IsScalar(v) {
		v.Value = value
		return
	}
	ilodoc.MapSet(f.Container, f.Key, ilodoc.Str(value))
}

// Options controls which field classes are enumerated.
type Options struct {
	// IncludeInstanceOf includes resources[].instanceOf, which often points
	// at imported type paths and cannot be checked as a plain resource
	// reference.
	IncludeInstanceOf bool
}

// All yields every reference-bearing field in the document.
func All(doc *ilodoc.Document, opts Options) []Field {
	var out []Field
	if resources := doc.Resources(); ilodoc.IsSeq(resources) {
		collectResourceFields(resources, "resources", opts, &out)
	}
	if perspectives := doc.Perspectives(); ilodoc.IsSeq(perspectives) {
		for i, raw := range perspectives.Content {
			if !ilodoc.IsMap(raw) {
				continue
			}
			perspective := index.PerspectiveIdentifier(raw)
			collectPerspectiveFields(raw, perspective, fmt.Sprintf("perspectives[%d]", i), &out)
		}
	}
	return out
}

// ContextFields yields every string field of every context. Contexts hold
// free-form reference strings (roots, urls, etc.), so all scalars count.
func ContextFields(doc *ilodoc.Document) []Field {
	var out []Field
	contexts := doc.Contexts()
	if !ilodoc.IsSeq(contexts) {
		return out
	}
	for i, context := range contexts.Content {
		if !ilodoc.IsMap(context) {
			continue
		}
		name := ilodoc.StrValue(context, "name")
		if name == "" {
			name = fmt.Sprintf("context[%d]", i)
		}
		for _, key := range ilodoc.MapKeys(context) {
			value := ilodoc.MapGet(context, key)
			if !ilodoc.IsScalar(value) || value.Tag == "!!bool" || value.Tag == "!!int" || value.Tag == "!!float" {
				continue
			}
			out = append(out, Field{
				Container: context,
				Key:       key,
				Path:      fmt.Sprintf("contexts[%d].%s", i, key),
				Section:   "contexts:" + name,
			})
		}
	}
	return out
}

func collectResourceFields(resources *yaml.Node, basePath string, opts Options, out *[]Field) {
	for i, raw := range resources.Content {
		if !ilodoc.IsMap(raw) {
			continue
		}
		path := fmt.Sprintf("%s[%d]", basePath, i)
		if opts.IncludeInstanceOf && ilodoc.IsScalar(ilodoc.MapGet(raw, "instanceOf")) {
			*out = append(*out, Field{
				Container: raw,
				Key:       "instanceOf",
				Path:      path + ".instanceOf",
				Section:   "resource.instanceOf",
			})
		}
		if children := ilodoc.MapGet(raw, ilodoc.KeyChildren); ilodoc.IsSeq(children) {
			collectResourceFields(children, path+".children", opts, out)
		}
	}
}

func collectPerspectiveFields(perspective *yaml.Node, identifier, basePath string, out *[]Field) {
	if relations := ilodoc.MapGet(perspective, ilodoc.KeyRelations); ilodoc.IsSeq(relations) {
		for i, relation := range relations.Content {
			if !ilodoc.IsMap(relation) {
				continue
			}
			relationPath := fmt.Sprintf("%s.relations[%d]", basePath, i)
			for _, key := range relationReferenceKeys {
				if ilodoc.IsScalar(ilodoc.MapGet(relation, key)) {
					*out = append(*out, Field{
						Container:   relation,
						Key:         key,
						Path:        relationPath + "." + key,
						Perspective: identifier,
						Section:     "relations",
					})
				}
			}
		}
	}

	if overrides := ilodoc.MapGet(perspective, ilodoc.KeyOverrides); ilodoc.IsSeq(overrides) {
		for i, override := range overrides.Content {
			if !ilodoc.IsMap(override) {
				continue
			}
			overridePath := fmt.Sprintf("%s.overrides[%d]", basePath, i)
			for _, key := range overrideReferenceKeys {
				if ilodoc.IsScalar(ilodoc.MapGet(override, key)) {
					*out = append(*out, Field{
						Container:   override,
						Key:         key,
						Path:        overridePath + "." + key,
						Perspective: identifier,
						Section:     "overrides",
					})
				}
			}
		}
	}

	if aliases := ilodoc.MapGet(perspective, ilodoc.KeyAliases); ilodoc.IsSeq(aliases) {
		for i, alias := range aliases.Content {
			if !ilodoc.IsMap(alias) {
				continue
			}
			if ilodoc.IsScalar(ilodoc.MapGet(alias, "for")) {
				*out = append(*out, Field{
					Container:   alias,
					Key:         "for",
					Path:        fmt.Sprintf("%s.aliases[%d].for", basePath, i),
					Perspective: identifier,
					Section:     "aliases",
				})
			}
		}
	}

	if walkthrough := ilodoc.MapGet(perspective, ilodoc.KeyWalkthrough); ilodoc.IsSeq(walkthrough) {
		for i, slide := range walkthrough.Content {
			if !ilodoc.IsMap(slide) {
				continue
			}
			slidePath := fmt.Sprintf("%s.walkthrough[%d]", basePath, i)
			for _, key := range ilodoc.MapKeys(slide) {
				if !walkthroughReferenceKeys[key] {
					continue
				}
				if ilodoc.IsScalar(ilodoc.MapGet(slide, key)) {
					*out = append(*out, Field{
						Container:   slide,
						Key:         key,
						Path:        slidePath + "." + key,
						Perspective: identifier,
						Section:     "walkthrough",
					})
				}
			}
		}
	}

	if sequence := ilodoc.MapGet(perspective, ilodoc.KeySequence); ilodoc.IsMap(sequence) {
		if ilodoc.IsScalar(ilodoc.MapGet(sequence, "start")) {
			*out = append(*out, Field{
				Container:   sequence,
				Key:         "start",
				Path:        basePath + ".sequence.start",
				Perspective: identifier,
				Section:     "sequence",
			})
		}
		if steps := ilodoc.MapGet(sequence, ilodoc.KeySteps); ilodoc.IsSeq(steps) {
			collectStepFields(steps, identifier, basePath+".sequence.steps", out)
		}
	}
}

func collectStepFields(steps *yaml.Node, identifier, basePath string, out *[]Field) {
	for i, step := range steps.Content {
		if !ilodoc.IsMap(step) {
			continue
		}
		stepPath := fmt.Sprintf("%s[%d]", basePath, i)
		for _, key := range stepReferenceKeys {
			if ilodoc.IsScalar(ilodoc.MapGet(step, key)) {
				*out = append(*out, Field{
					Container:   step,
					Key:         key,
					Path:        stepPath + "." + key,
					Perspective: identifier,
					Section:     "sequence",
				})
			}
		}
		if sub := ilodoc.MapGet(step, "subSequence"); ilodoc.IsMap(sub) {
			if subSteps := ilodoc.MapGet(sub, ilodoc.KeySteps); ilodoc.IsSeq(subSteps) {
				collectStepFields(subSteps, identifier, stepPath+".subSequence.steps", out)
			}
		}
	}
}
