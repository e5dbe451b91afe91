// Package validate checks structural invariants of a diagram document:
// identifier uniqueness, reference integrity, relation well-formedness,
// and extends-chain acyclicity. It never mutates and is safe to run
// concurrently on independent documents.
package validate

import (
	"fmt"
	"strings"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/reffields"
	"ilo/internal/refs"
)

// DefaultMaxFindings bounds a validation pass.
const DefaultMaxFindings = 512

// Document runs every rule over the document and grades findings by mode.
func Document(doc *ilodoc.Document, mode Mode) *diag.Bag {
	bag := diag.NewBag(DefaultMaxFindings)
	report := func(code diag.Code, path, perspective, message string) {
		sev, keep := grade(code, mode)
		if !keep {
			return
		}
		bag.Add(diag.Finding{
			Severity:    sev,
			Code:        code,
			Path:        path,
			Perspective: perspective,
			Message:     message,
		})
	}

	checkDuplicateResourceIDs(doc, report)
	checkDuplicatePerspectiveIDs(doc, report)
	checkDuplicateContextNames(doc, report)
	checkRestrictedChars(doc, report)
	checkRelationEndpoints(doc, report)
	checkDuplicateOverrides(doc, report)
	checkBrokenReferences(doc, report)
	checkExtendsChains(doc, report)

	bag.Sort()
	return bag
}

type reportFunc func(code diag.Code, path, perspective, message string)

func checkDuplicateResourceIDs(doc *ilodoc.Document, report reportFunc) {
	type entry struct {
		id   string
		path string
	}
	var explicit []entry
	counts := make(map[string]int)
	for _, loc := range index.Resources(doc) {
		id := refs.NormalizeIdent(ilodoc.StrValue(loc.Node, "id"))
		if id == "" {
			continue
		}
		explicit = append(explicit, entry{id: id, path: loc.Path})
		counts[id]++
	}
	for _, e := range explicit {
		if counts[e.id] > 1 {
			report(diag.DocDuplicateResourceID, e.path, "",
				fmt.Sprintf("duplicate resource id: %s (ids must be unique)", e.id))
		}
	}
}

func checkDuplicatePerspectiveIDs(doc *ilodoc.Document, report reportFunc) {
	perspectives := doc.Perspectives()
	if !ilodoc.IsSeq(perspectives) {
		return
	}
	type entry struct {
		id    string
		index int
	}
	var explicit []entry
	counts := make(map[string]int)
	for i, p := range perspectives.Content {
		if !ilodoc.IsMap(p) {
			continue
		}
		id := refs.NormalizeIdent(ilodoc.StrValue(p, "id"))
		if id == "" {
			continue
		}
		explicit = append(explicit, entry{id: id, index: i})
		counts[id]++
	}
	for _, e := range explicit {
		if counts[e.id] > 1 {
			report(diag.DocDuplicatePerspectiveID, fmt.Sprintf("perspectives[%d]", e.index), "",
				fmt.Sprintf("duplicate perspective id: %s (ids must be unique)", e.id))
		}
	}
}

func checkDuplicateContextNames(doc *ilodoc.Document, report reportFunc) {
	counts := make(map[string]int)
	for _, loc := range index.Contexts(doc) {
		counts[loc.Name]++
	}
	for _, loc := range index.Contexts(doc) {
		if counts[loc.Name] > 1 {
			report(diag.DocDuplicateContextName, fmt.Sprintf("contexts[%d]", loc.Index), "",
				fmt.Sprintf("duplicate context name: %s (names must be unique)", loc.Name))
		}
	}
}

func checkRestrictedChars(doc *ilodoc.Document, report reportFunc) {
	for _, loc := range index.Resources(doc) {
		if id := ilodoc.StrValue(loc.Node, "id"); id != "" {
			if bad := refs.FirstRestrictedChar(id); bad != 0 {
				report(diag.DocRestrictedIDChar, loc.Path+".id", "",
					fmt.Sprintf("resource id contains restricted char %q (use letters, digits, ., -, _)", bad))
			}
		}
		if name := ilodoc.StrValue(loc.Node, "name"); name != "" && !ilodoc.MapHas(loc.Node, "id") {
			if bad := refs.FirstRestrictedChar(name); bad != 0 {
				report(diag.DocNameNeedsID, loc.Path+".name", "",
					fmt.Sprintf("resource name has restricted char %q and requires explicit id (add a clean `id` field)", bad))
			}
		}
	}

	for _, ploc := range index.Perspectives(doc) {
		aliases := ilodoc.MapGet(ploc.Node, ilodoc.KeyAliases)
		if !ilodoc.IsSeq(aliases) {
			continue
		}
		for i, alias := range aliases.Content {
			if !ilodoc.IsMap(alias) {
				continue
			}
			name := ilodoc.StrValue(alias, "alias")
			if name == "" {
				continue
			}
			if bad := refs.FirstRestrictedChar(name); bad != 0 {
				report(diag.DocRestrictedAliasChar,
					fmt.Sprintf("perspectives[%d].aliases[%d].alias", ploc.Index, i), ploc.Identifier,
					fmt.Sprintf("alias contains restricted char %q (use letters, digits, ., -, _)", bad))
			}
		}
	}
}

func checkRelationEndpoints(doc *ilodoc.Document, report reportFunc) {
	for _, ploc := range index.Perspectives(doc) {
		relations := ilodoc.MapGet(ploc.Node, ilodoc.KeyRelations)
		if !ilodoc.IsSeq(relations) {
			continue
		}
		for i, relation := range relations.Content {
			if !ilodoc.IsMap(relation) {
				continue
			}
			if !ilodoc.MapHas(relation, "from") && !ilodoc.MapHas(relation, "to") {
				report(diag.RelMissingEndpoint,
					fmt.Sprintf("perspectives[%d].relations[%d]", ploc.Index, i), ploc.Identifier,
					"relation must define from or to")
			}
		}
	}
}

func checkDuplicateOverrides(doc *ilodoc.Document, report reportFunc) {
	for _, ploc := range index.Perspectives(doc) {
		overrides := ilodoc.MapGet(ploc.Node, ilodoc.KeyOverrides)
		if !ilodoc.IsSeq(overrides) {
			continue
		}
		seen := make(map[string]bool)
		for i, override := range overrides.Content {
			if !ilodoc.IsMap(override) {
				continue
			}
			rid := refs.NormalizeIdent(ilodoc.StrValue(override, "resourceId"))
			if rid == "" {
				continue
			}
			if seen[rid] {
				report(diag.DocDuplicateOverride,
					fmt.Sprintf("perspectives[%d].overrides[%d]", ploc.Index, i), ploc.Identifier,
					fmt.Sprintf("duplicate override for resourceId: %s (at most one per perspective)", rid))
			}
			seen[rid] = true
		}
	}
}

func checkBrokenReferences(doc *ilodoc.Document, report reportFunc) {
	known := collectKnownIdentifiers(doc)
	perspectiveAliases := collectPerspectiveAliases(doc)
	namespaces := doc.ImportNamespaces()
	emitted := make(map[string]bool)

	// instanceOf frequently points into imported type paths and cannot be
	// resolved without import expansion, so it is excluded here.
	for _, field := range reffields.All(doc, reffields.Options{IncludeInstanceOf: false}) {
		aliases := perspectiveAliases[field.Perspective]
		for _, component := range refs.ParseComponents(field.Value()) {
			if component.Special || component.Wildcard || component.Literal {
				continue
			}
			token := refs.NormalizeIdent(component.Token)
			if known[token] || aliases[token] {
				continue
			}
			if component.Namespaced {
				namespace := strings.SplitN(token, "::", 2)[0]
				if namespaces[namespace] {
					continue
				}
				if !emitted[field.Path+"\x00"+token] {
					emitted[field.Path+"\x00"+token] = true
					report(diag.RefUnresolvedNamespace, field.Path, field.Perspective,
						fmt.Sprintf("unknown import namespace in reference %q", component.Token))
				}
				continue
			}
			if emitted[field.Path+"\x00"+token] {
				continue
			}
			emitted[field.Path+"\x00"+token] = true
			report(diag.RefBroken, field.Path, field.Perspective,
				fmt.Sprintf("unknown reference %q (not found in resources, aliases, or imports)", component.Token))
		}
	}
}

func checkExtendsChains(doc *ilodoc.Document, report reportFunc) {
	// Perspectives: extends may list several comma-separated parents.
	perspectiveParents := make(map[string][]string)
	perspectivePaths := make(map[string]string)
	knownPerspectives := make(map[string]bool)
	for _, ploc := range index.Perspectives(doc) {
		knownPerspectives[ploc.Identifier] = true
	}
	for _, ploc := range index.Perspectives(doc) {
		extends := ilodoc.StrValue(ploc.Node, ilodoc.KeyExtends)
		if extends == "" {
			continue
		}
		path := fmt.Sprintf("perspectives[%d].extends", ploc.Index)
		perspectivePaths[ploc.Identifier] = path
		for _, token := range splitExtends(extends) {
			perspectiveParents[ploc.Identifier] = append(perspectiveParents[ploc.Identifier], token)
			if !knownPerspectives[token] {
				report(diag.ExtendsUnknown, path, ploc.Identifier,
					fmt.Sprintf("extends references unknown perspective: %s", token))
			}
		}
	}
	reportCycles(perspectiveParents, perspectivePaths, "perspective", report)

	// Contexts: single-parent chains by name.
	contextParents := make(map[string][]string)
	contextPaths := make(map[string]string)
	knownContexts := index.ContextNames(doc)
	for _, cloc := range index.Contexts(doc) {
		extends := ilodoc.StrValue(cloc.Node, ilodoc.KeyExtends)
		if extends == "" {
			continue
		}
		path := fmt.Sprintf("contexts[%d].extends", cloc.Index)
		contextPaths[cloc.Name] = path
		for _, token := range splitExtends(extends) {
			contextParents[cloc.Name] = append(contextParents[cloc.Name], token)
			if !knownContexts[token] {
				report(diag.ExtendsUnknown, path, "",
					fmt.Sprintf("extends references unknown context: %s", token))
			}
		}
	}
	reportCycles(contextParents, contextPaths, "context", report)
}

// reportCycles walks every extends chain with a visited set and flags the
// entities that can reach themselves.
func reportCycles(parents map[string][]string, paths map[string]string, kind string, report reportFunc) {
	for start := range parents {
		visited := map[string]bool{start: true}
		queue := append([]string(nil), parents[start]...)
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if current == start {
				report(diag.ExtendsCycle, paths[start], "",
					fmt.Sprintf("%s extends chain is cyclic: %s", kind, start))
				queue = nil
				break
			}
			if visited[current] {
				continue
			}
			visited[current] = true
			queue = append(queue, parents[current]...)
		}
	}
}

func collectKnownIdentifiers(doc *ilodoc.Document) map[string]bool {
	known := make(map[string]bool)
	for _, loc := range index.Resources(doc) {
		if id := refs.NormalizeIdent(ilodoc.StrValue(loc.Node, "id")); id != "" {
			known[id] = true
		}
		if name := refs.NormalizeIdent(ilodoc.StrValue(loc.Node, "name")); name != "" {
			known[name] = true
		}
	}
	for _, ploc := range index.Perspectives(doc) {
		known[ploc.Identifier] = true
	}
	return known
}

func collectPerspectiveAliases(doc *ilodoc.Document) map[string]map[string]bool {
	result := make(map[string]map[string]bool)
	for _, ploc := range index.Perspectives(doc) {
		set := make(map[string]bool)
		if aliases := ilodoc.MapGet(ploc.Node, ilodoc.KeyAliases); ilodoc.IsSeq(aliases) {
			for _, alias := range aliases.Content {
				if !ilodoc.IsMap(alias) {
					continue
				}
				if name := refs.NormalizeIdent(ilodoc.StrValue(alias, "alias")); name != "" {
					set[name] = true
				}
			}
		}
		result[ploc.Identifier] = set
	}
	return result
}

func splitExtends(raw string) []string {
	var out []string
	for _, token := range strings.Split(raw, ",") {
		if trimmed := refs.NormalizeIdent(token); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
