package ops

import (
	"strings"
	"testing"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

const perspectiveDoc = `resources:
  - id: db
perspectives:
  - id: base
    relations:
      - from: db
        to: db
  - id: extra
    extends: base
  - id: third
`

func TestListPerspectives(t *testing.T) {
	doc := parseDoc(t, perspectiveDoc)
	rows := ListPerspectives(doc)
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Identifier != "base" || rows[0].Relations != 1 {
		t.Fatalf("base row: %+v", rows[0])
	}
	if len(rows[1].Extends) != 1 || rows[1].Extends[0] != "base" {
		t.Fatalf("extra extends: %+v", rows[1])
	}
}

func TestCreatePerspective(t *testing.T) {
	doc := parseDoc(t, perspectiveDoc)
	if err := CreatePerspective(doc, "fresh", "Fresh", "base, extra"); err != nil {
		t.Fatalf("CreatePerspective: %v", err)
	}
	if _, err := index.Perspective(doc, "fresh"); err != nil {
		t.Fatalf("lookup: %v", err)
	}

	err := CreatePerspective(doc, "base", "", "")
	wantOpError(t, err, diag.OpAlreadyExists)
	if !strings.Contains(err.Error(), "perspectives[0]") {
		t.Fatalf("duplicate error missing position: %v", err)
	}
	wantOpError(t, CreatePerspective(doc, "another", "", "ghost"), diag.OpNotFound)
}

func TestRenamePerspective_RewritesExtends(t *testing.T) {
	doc := parseDoc(t, perspectiveDoc)
	if err := RenamePerspective(doc, "base", "core"); err != nil {
		t.Fatalf("RenamePerspective: %v", err)
	}
	extra, _ := index.Perspective(doc, "extra")
	if got := ilodoc.StrValue(extra.Node, ilodoc.KeyExtends); got != "core" {
		t.Fatalf("extends = %q", got)
	}
}

func TestDeletePerspective_Dependents(t *testing.T) {
	doc := parseDoc(t, perspectiveDoc)
	wantOpError(t, DeletePerspective(doc, "base", false), diag.OpSchema)

	if err := DeletePerspective(doc, "base", true); err != nil {
		t.Fatalf("forced delete: %v", err)
	}
	extra, _ := index.Perspective(doc, "extra")
	if ilodoc.MapHas(extra.Node, ilodoc.KeyExtends) {
		t.Fatal("force must detach the dependent's extends entry")
	}
}

func TestCopyPerspective(t *testing.T) {
	doc := parseDoc(t, perspectiveDoc)
	if err := CopyPerspective(doc, "base", "base2"); err != nil {
		t.Fatalf("CopyPerspective: %v", err)
	}
	copied, err := index.Perspective(doc, "base2")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	relations := ilodoc.MapGet(copied.Node, ilodoc.KeyRelations)
	if relations == nil || len(relations.Content) != 1 {
		t.Fatal("copy must carry the relations")
	}
}

func TestReorderPerspective(t *testing.T) {
	doc := parseDoc(t, perspectiveDoc)
	if err := ReorderPerspective(doc, "third", 1); err != nil {
		t.Fatalf("ReorderPerspective: %v", err)
	}
	rows := ListPerspectives(doc)
	if rows[0].Identifier != "third" {
		t.Fatalf("order: %v", rows)
	}
	wantOpError(t, ReorderPerspective(doc, "third", 9), diag.OpIndexRange)
}
