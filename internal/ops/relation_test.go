package ops

import (
	"testing"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
)

const relationDoc = `resources:
  - id: db
  - id: api
  - id: web
perspectives:
  - id: deps
    relations:
      - from: web
        to: api
      - from: api
        to: db
        label: reads
  - id: ops
contexts:
  - name: Production
  - name: Staging
`

func TestAddRelation(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	err := AddRelation(doc, "deps", RelationPayload{
		"from": "web", "to": "db", "arrowDirection": "bidirectional", "secondary": true,
	})
	if err != nil {
		t.Fatalf("AddRelation: %v", err)
	}
	relations := relationsOf(t, doc, "deps")
	if len(relations) != 3 {
		t.Fatalf("relation count = %d", len(relations))
	}
	added := relations[2]
	if ilodoc.StrValue(added, "arrowDirection") != "bidirectional" {
		t.Fatal("arrowDirection missing")
	}
	if !ilodoc.BoolValue(added, "secondary") {
		t.Fatal("secondary must be a bool true")
	}
	// Keys come out in canonical order: from before to before the rest.
	if added.Content[0].Value != "from" || added.Content[2].Value != "to" {
		t.Fatalf("field order: %v, %v", added.Content[0].Value, added.Content[2].Value)
	}
}

func TestAddRelation_Validation(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	wantOpError(t, AddRelation(doc, "deps", RelationPayload{"label": "x"}), diag.RelMissingEndpoint)
	wantOpError(t, AddRelation(doc, "deps", RelationPayload{"from": "a", "bogus": "x"}), diag.OpSchema)
	wantOpError(t, AddRelation(doc, "deps", RelationPayload{"from": "a", "arrowDirection": "sideways"}), diag.OpSchema)
	wantOpError(t, AddRelation(doc, "ghost", RelationPayload{"from": "a"}), diag.OpNotFound)
}

func TestRemoveRelation_Indexing(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	if err := RemoveRelation(doc, "deps", 1); err != nil {
		t.Fatalf("RemoveRelation: %v", err)
	}
	relations := relationsOf(t, doc, "deps")
	if len(relations) != 1 || ilodoc.StrValue(relations[0], "from") != "api" {
		t.Fatal("index 1 must remove the first relation")
	}

	wantOpError(t, RemoveRelation(doc, "deps", 0), diag.OpIndexRange)
	wantOpError(t, RemoveRelation(doc, "deps", 2), diag.OpIndexRange)
	wantOpError(t, RemoveRelation(doc, "ops", 1), diag.OpNotFound)
}

func TestEditRelation(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	err := EditRelation(doc, "deps", 2, RelationEdit{
		Set:   RelationPayload{"color": "red"},
		Clear: []string{"label"},
	})
	if err != nil {
		t.Fatalf("EditRelation: %v", err)
	}
	relation := relationsOf(t, doc, "deps")[1]
	if ilodoc.StrValue(relation, "color") != "red" {
		t.Fatal("color not set")
	}
	if ilodoc.MapHas(relation, "label") {
		t.Fatal("label not cleared")
	}
}

func TestEditRelation_ClearRules(t *testing.T) {
	doc := parseDoc(t, relationDoc)

	// Same field set and cleared.
	wantOpError(t, EditRelation(doc, "deps", 1, RelationEdit{
		Set:   RelationPayload{"label": "x"},
		Clear: []string{"label"},
	}), diag.OpSchema)

	// Duplicate clear entries.
	wantOpError(t, EditRelation(doc, "deps", 1, RelationEdit{
		Clear: []string{"label", "label"},
	}), diag.OpSchema)

	// Empty edit.
	wantOpError(t, EditRelation(doc, "deps", 1, RelationEdit{}), diag.OpSchema)

	// Clearing both endpoints violates the relation invariant and must
	// leave the node untouched.
	before := dump(t, doc)
	wantOpError(t, EditRelation(doc, "deps", 1, RelationEdit{
		Clear: []string{"from", "to"},
	}), diag.RelMissingEndpoint)
	if dump(t, doc) != before {
		t.Fatal("failed edit must not mutate the relation")
	}

	// Swapping the remaining endpoint in the same call is fine.
	if err := EditRelation(doc, "deps", 1, RelationEdit{
		Set:   RelationPayload{"from": "db"},
		Clear: []string{"to"},
	}); err != nil {
		t.Fatalf("endpoint swap: %v", err)
	}
}

func TestMatchRelations(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	indices, err := MatchRelations(doc, "deps", RelationPayload{"to": "db"})
	if err != nil {
		t.Fatalf("MatchRelations: %v", err)
	}
	if len(indices) != 1 || indices[0] != 2 {
		t.Fatalf("indices = %v", indices)
	}

	// Absent secondary counts as false.
	indices, err = MatchRelations(doc, "deps", RelationPayload{"secondary": false})
	if err != nil {
		t.Fatalf("MatchRelations: %v", err)
	}
	if len(indices) != 2 {
		t.Fatalf("absent secondary must match false, got %v", indices)
	}
}

func TestRemoveRelationsMatch(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	removed, err := RemoveRelationsMatch(doc, Target{Perspectives: []string{"deps"}},
		RelationPayload{"from": "api"}, true)
	if err != nil {
		t.Fatalf("RemoveRelationsMatch: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if len(relationsOf(t, doc, "deps")) != 1 {
		t.Fatal("relation not removed")
	}
}

func TestRemoveRelationsMatch_RequireMatch(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	_, err := RemoveRelationsMatch(doc, Target{Perspectives: []string{"deps"}},
		RelationPayload{"from": "ghost"}, true)
	wantOpError(t, err, diag.OpNoMatch)

	removed, err := RemoveRelationsMatch(doc, Target{Perspectives: []string{"deps"}},
		RelationPayload{"from": "ghost"}, false)
	if err != nil || removed != 0 {
		t.Fatalf("relaxed requireMatch: %d, %v", removed, err)
	}
}

func TestEditRelationsMatch_CountsRealChanges(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	edited, err := EditRelationsMatch(doc, Target{Perspectives: []string{"*"}},
		RelationPayload{"to": "db"},
		RelationEdit{Set: RelationPayload{"color": "red"}}, true)
	if err != nil {
		t.Fatalf("EditRelationsMatch: %v", err)
	}
	if edited != 1 {
		t.Fatalf("edited = %d", edited)
	}

	// Re-applying the same edit changes nothing, so requireMatch trips.
	_, err = EditRelationsMatch(doc, Target{Perspectives: []string{"*"}},
		RelationPayload{"to": "db"},
		RelationEdit{Set: RelationPayload{"color": "red"}}, true)
	wantOpError(t, err, diag.OpNoMatch)
}

func TestAddRelationMany_WildcardTarget(t *testing.T) {
	doc := parseDoc(t, relationDoc)
	added, err := AddRelationMany(doc, Target{Perspectives: []string{"*"}},
		RelationPayload{"from": "web", "to": "db"})
	if err != nil {
		t.Fatalf("AddRelationMany: %v", err)
	}
	if added != 2 {
		t.Fatalf("added = %d", added)
	}
	if len(relationsOf(t, doc, "ops")) != 1 {
		t.Fatal("ops perspective did not receive the relation")
	}
}

func TestListRelations(t *testing.T) {
	doc := parseDoc(t, relationDoc)

	all, err := ListRelations(doc, "", nil)
	if err != nil {
		t.Fatalf("ListRelations(all): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("rows = %d, want 2", len(all))
	}
	if all[0].Perspective != "deps" || all[0].Index != 1 || all[0].Fields["from"] != "web" {
		t.Fatalf("row 0 = %+v", all[0])
	}
	if all[1].Fields["label"] != "reads" {
		t.Fatalf("row 1 = %+v", all[1])
	}

	filtered, err := ListRelations(doc, "deps", RelationPayload{"to": "db"})
	if err != nil {
		t.Fatalf("ListRelations(filtered): %v", err)
	}
	if len(filtered) != 1 || filtered[0].Index != 2 {
		t.Fatalf("filtered = %+v", filtered)
	}

	none, err := ListRelations(doc, "ops", nil)
	if err != nil || none != nil {
		t.Fatalf("ops rows = %v err = %v", none, err)
	}

	_, err = ListRelations(doc, "ghost", nil)
	wantOpError(t, err, diag.OpNotFound)
	_, err = ListRelations(doc, "", RelationPayload{"bogus": "x"})
	wantOpError(t, err, diag.OpSchema)
}
