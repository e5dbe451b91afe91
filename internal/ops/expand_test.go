package ops

import (
	"testing"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
)

const expandDoc = `resources:
  - id: db
  - id: api
perspectives:
  - id: deps
contexts:
  - name: Production
  - name: Staging
`

func TestAddRelationMany_TemplateExpansion(t *testing.T) {
	doc := parseDoc(t, expandDoc)
	added, err := AddRelationMany(doc,
		Target{Perspectives: []string{"deps"}, Contexts: []string{"Production", "Staging"}},
		RelationPayload{"from": "api", "to": "db", "label": "{context} traffic"})
	if err != nil {
		t.Fatalf("AddRelationMany: %v", err)
	}
	if added != 2 {
		t.Fatalf("added = %d", added)
	}
	relations := relationsOf(t, doc, "deps")
	if ilodoc.StrValue(relations[0], "label") != "Production traffic" {
		t.Fatalf("first label = %q", ilodoc.StrValue(relations[0], "label"))
	}
	if ilodoc.StrValue(relations[1], "label") != "Staging traffic" {
		t.Fatalf("second label = %q", ilodoc.StrValue(relations[1], "label"))
	}
}

func TestAddRelationMany_NoPlaceholderCollapses(t *testing.T) {
	doc := parseDoc(t, expandDoc)
	added, err := AddRelationMany(doc,
		Target{Perspectives: []string{"deps"}, Contexts: []string{"Production", "Staging"}},
		RelationPayload{"from": "api", "to": "db"})
	if err != nil {
		t.Fatalf("AddRelationMany: %v", err)
	}
	// Without {context} the template renders identically everywhere, so
	// only one relation lands per perspective.
	if added != 1 {
		t.Fatalf("added = %d", added)
	}
}

func TestAddRelationMany_PlaceholderNeedsContexts(t *testing.T) {
	doc := parseDoc(t, expandDoc)
	_, err := AddRelationMany(doc,
		Target{Perspectives: []string{"deps"}},
		RelationPayload{"from": "api", "to": "db", "label": "{context}"})
	wantOpError(t, err, diag.OpTemplate)
}

func TestAddRelationMany_UnknownContext(t *testing.T) {
	doc := parseDoc(t, expandDoc)
	_, err := AddRelationMany(doc,
		Target{Perspectives: []string{"deps"}, Contexts: []string{"Nope"}},
		RelationPayload{"from": "api", "to": "db", "label": "{context}"})
	wantOpError(t, err, diag.OpNotFound)
}

func TestResolvePerspectives_Rules(t *testing.T) {
	doc := parseDoc(t, expandDoc)

	if _, err := (Target{}).resolvePerspectives(doc); err == nil {
		t.Fatal("empty perspectives must be rejected")
	}
	_, err := (Target{Perspectives: []string{"*", "deps"}}).resolvePerspectives(doc)
	wantOpError(t, err, diag.OpSchema)
	_, err = (Target{Perspectives: []string{"ghost"}}).resolvePerspectives(doc)
	wantOpError(t, err, diag.OpNotFound)
}

func TestEditRelationsMatch_TemplateLockstep(t *testing.T) {
	doc := parseDoc(t, `resources:
  - id: db
  - id: api
perspectives:
  - id: deps
    relations:
      - from: api
        to: db
        label: Production traffic
      - from: api
        to: db
        label: Staging traffic
contexts:
  - name: Production
  - name: Staging
`)
	edited, err := EditRelationsMatch(doc,
		Target{Perspectives: []string{"deps"}, Contexts: []string{"Production", "Staging"}},
		RelationPayload{"label": "{context} traffic"},
		RelationEdit{Set: RelationPayload{"description": "{context} path"}}, true)
	if err != nil {
		t.Fatalf("EditRelationsMatch: %v", err)
	}
	if edited != 2 {
		t.Fatalf("edited = %d", edited)
	}
	relations := relationsOf(t, doc, "deps")
	if ilodoc.StrValue(relations[0], "description") != "Production path" {
		t.Fatalf("description = %q", ilodoc.StrValue(relations[0], "description"))
	}
	if ilodoc.StrValue(relations[1], "description") != "Staging path" {
		t.Fatalf("description = %q", ilodoc.StrValue(relations[1], "description"))
	}
}
