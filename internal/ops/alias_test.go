package ops

import (
	"testing"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

const aliasDoc = `resources:
- id: db
- id: cache
perspectives:
- id: deps
  aliases:
  - alias: primary
    for: db
- id: flow
  aliases:
  - alias: store
    for: cache
`

func TestListAliases(t *testing.T) {
	doc := parseDoc(t, aliasDoc)

	all, err := ListAliases(doc, "")
	if err != nil {
		t.Fatalf("ListAliases(all): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all rows = %d, want 2", len(all))
	}
	if all[0].Perspective != "deps" || all[0].Alias != "primary" || all[0].For != "db" {
		t.Fatalf("row 0 = %+v", all[0])
	}

	one, err := ListAliases(doc, "flow")
	if err != nil {
		t.Fatalf("ListAliases(flow): %v", err)
	}
	if len(one) != 1 || one[0].Alias != "store" {
		t.Fatalf("flow rows = %+v", one)
	}

	_, err = ListAliases(doc, "ghost")
	wantOpError(t, err, diag.OpNotFound)
}

func TestAddAlias(t *testing.T) {
	doc := parseDoc(t, aliasDoc)
	if err := AddAlias(doc, "deps", "backup", "cache"); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}
	rows, err := ListAliases(doc, "deps")
	if err != nil {
		t.Fatalf("ListAliases: %v", err)
	}
	if len(rows) != 2 || rows[1].Alias != "backup" {
		t.Fatalf("deps rows = %+v", rows)
	}

	// Uniqueness is scoped to one perspective.
	err = AddAlias(doc, "deps", "primary", "cache")
	wantOpError(t, err, diag.OpAlreadyExists)
	if err := AddAlias(doc, "flow", "primary", "db"); err != nil {
		t.Fatalf("same alias in another perspective: %v", err)
	}

	err = AddAlias(doc, "deps", "bad[name", "db")
	wantOpError(t, err, diag.OpInvalidRef)
	err = AddAlias(doc, "deps", "", "db")
	wantOpError(t, err, diag.OpSchema)
	err = AddAlias(doc, "ghost", "x", "db")
	wantOpError(t, err, diag.OpNotFound)
}

func TestEditAlias(t *testing.T) {
	doc := parseDoc(t, aliasDoc)
	if err := EditAlias(doc, "deps", "primary", "cache"); err != nil {
		t.Fatalf("EditAlias: %v", err)
	}
	rows, _ := ListAliases(doc, "deps")
	if rows[0].For != "cache" {
		t.Fatalf("for = %q after edit, want cache", rows[0].For)
	}

	err := EditAlias(doc, "deps", "ghost", "db")
	wantOpError(t, err, diag.OpNotFound)
	err = EditAlias(doc, "deps", "primary", "")
	wantOpError(t, err, diag.OpSchema)
}

func TestRemoveAlias_DropsEmptiedKey(t *testing.T) {
	doc := parseDoc(t, aliasDoc)
	if err := RemoveAlias(doc, "deps", "primary"); err != nil {
		t.Fatalf("RemoveAlias: %v", err)
	}
	loc, err := index.Perspective(doc, "deps")
	if err != nil {
		t.Fatalf("perspective lookup: %v", err)
	}
	if ilodoc.MapGet(loc.Node, ilodoc.KeyAliases) != nil {
		t.Fatal("emptied aliases key should be removed")
	}

	err = RemoveAlias(doc, "deps", "primary")
	wantOpError(t, err, diag.OpNotFound)
}
