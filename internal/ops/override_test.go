package ops

import (
	"testing"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

const overrideDoc = `resources:
- id: vpc
  children:
  - id: db
- id: api
perspectives:
- id: deps
  overrides:
  - resourceId: db
    parentId: api
- id: flow
  overrides:
  - resourceId: api
    scale: 1.5
`

func TestListOverrides(t *testing.T) {
	doc := parseDoc(t, overrideDoc)

	all, err := ListOverrides(doc, "")
	if err != nil {
		t.Fatalf("ListOverrides(all): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all rows = %d, want 2", len(all))
	}
	if all[0].Perspective != "deps" || all[0].ResourceID != "db" || all[0].ParentID != "api" || all[0].HasScale {
		t.Fatalf("row 0 = %+v", all[0])
	}
	if !all[1].HasScale || all[1].Scale != 1.5 {
		t.Fatalf("row 1 = %+v", all[1])
	}

	_, err = ListOverrides(doc, "ghost")
	wantOpError(t, err, diag.OpNotFound)
}

func TestAddOverride(t *testing.T) {
	doc := parseDoc(t, overrideDoc)
	if err := AddOverride(doc, "deps", "vpc", OverrideSpec{Scale: 2, HasScale: true}); err != nil {
		t.Fatalf("AddOverride: %v", err)
	}
	rows, _ := ListOverrides(doc, "deps")
	if len(rows) != 2 || rows[1].ResourceID != "vpc" || rows[1].Scale != 2 {
		t.Fatalf("deps rows = %+v", rows)
	}

	// One override per resource, scoped per perspective.
	err := AddOverride(doc, "deps", "db", OverrideSpec{ParentID: "vpc"})
	wantOpError(t, err, diag.OpAlreadyExists)
	if err := AddOverride(doc, "flow", "db", OverrideSpec{ParentID: "vpc"}); err != nil {
		t.Fatalf("same resource in another perspective: %v", err)
	}

	err = AddOverride(doc, "deps", "api", OverrideSpec{})
	wantOpError(t, err, diag.OpSchema)
	err = AddOverride(doc, "deps", "", OverrideSpec{ParentID: "vpc"})
	wantOpError(t, err, diag.OpSchema)
	err = AddOverride(doc, "ghost", "db", OverrideSpec{ParentID: "vpc"})
	wantOpError(t, err, diag.OpNotFound)
}

func TestEditOverride(t *testing.T) {
	doc := parseDoc(t, overrideDoc)
	if err := EditOverride(doc, "deps", "db", OverrideSpec{Scale: 0.5, HasScale: true}, []string{"parentId"}); err != nil {
		t.Fatalf("EditOverride: %v", err)
	}
	rows, _ := ListOverrides(doc, "deps")
	if rows[0].ParentID != "" || !rows[0].HasScale || rows[0].Scale != 0.5 {
		t.Fatalf("row after edit = %+v", rows[0])
	}

	err := EditOverride(doc, "deps", "db", OverrideSpec{Scale: 1, HasScale: true}, []string{"scale"})
	wantOpError(t, err, diag.OpSchema)
	err = EditOverride(doc, "deps", "db", OverrideSpec{}, []string{"style"})
	wantOpError(t, err, diag.OpSchema)
	err = EditOverride(doc, "deps", "ghost", OverrideSpec{ParentID: "vpc"}, nil)
	wantOpError(t, err, diag.OpNotFound)
}

func TestEditOverride_CannotClearLastField(t *testing.T) {
	doc := parseDoc(t, overrideDoc)
	before := dump(t, doc)
	err := EditOverride(doc, "deps", "db", OverrideSpec{}, []string{"parentId"})
	wantOpError(t, err, diag.OpSchema)
	if after := dump(t, doc); after != before {
		t.Fatalf("rejected edit changed the document:\n%s", after)
	}

	// Clearing one field is fine while the other is being set.
	if err := EditOverride(doc, "deps", "db", OverrideSpec{Scale: 3, HasScale: true}, []string{"parentId"}); err != nil {
		t.Fatalf("clear parentId while setting scale: %v", err)
	}
}

func TestRemoveOverride_DropsEmptiedKey(t *testing.T) {
	doc := parseDoc(t, overrideDoc)
	if err := RemoveOverride(doc, "deps", "db"); err != nil {
		t.Fatalf("RemoveOverride: %v", err)
	}
	loc, err := index.Perspective(doc, "deps")
	if err != nil {
		t.Fatalf("perspective lookup: %v", err)
	}
	if ilodoc.MapGet(loc.Node, ilodoc.KeyOverrides) != nil {
		t.Fatal("emptied overrides key should be removed")
	}

	err = RemoveOverride(doc, "deps", "db")
	wantOpError(t, err, diag.OpNotFound)
}
