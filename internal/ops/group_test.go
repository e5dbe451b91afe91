package ops

import (
	"testing"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

const groupDoc = `resources:
  - id: web
  - id: api
  - id: db
  - id: infra
    children:
      - id: cache
`

func TestCreateGroup(t *testing.T) {
	doc := parseDoc(t, groupDoc)
	err := CreateGroup(doc, CreateGroupSpec{
		ID:      "backend",
		Name:    "Backend",
		Members: []string{"api", "db"},
	})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	for _, member := range []string{"api", "db"} {
		loc, err := index.Resource(doc, member)
		if err != nil {
			t.Fatalf("lookup %s: %v", member, err)
		}
		if ilodoc.StrValue(loc.Parent, "id") != "backend" {
			t.Fatalf("%s must sit under backend", member)
		}
	}
}

func TestCreateGroup_BadMemberLeavesDocUntouched(t *testing.T) {
	doc := parseDoc(t, groupDoc)
	before := dump(t, doc)
	err := CreateGroup(doc, CreateGroupSpec{ID: "g", Members: []string{"api", "ghost"}})
	wantOpError(t, err, diag.OpNotFound)
	if dump(t, doc) != before {
		t.Fatal("failed group.create must not mutate the document")
	}
}

func TestCreateGroup_ParentInsideMemberRejected(t *testing.T) {
	doc := parseDoc(t, groupDoc)
	before := dump(t, doc)
	err := CreateGroup(doc, CreateGroupSpec{ID: "g", Parent: "cache", Members: []string{"infra"}})
	if err == nil {
		t.Fatal("group parent inside a member subtree must be rejected")
	}
	if dump(t, doc) != before {
		t.Fatal("failed group.create must not mutate the document")
	}
}

func TestMoveMany(t *testing.T) {
	doc := parseDoc(t, groupDoc)
	if err := MoveMany(doc, []string{"web", "api"}, "infra"); err != nil {
		t.Fatalf("MoveMany: %v", err)
	}
	for _, id := range []string{"web", "api"} {
		loc, err := index.Resource(doc, id)
		if err != nil {
			t.Fatalf("lookup %s: %v", id, err)
		}
		if ilodoc.StrValue(loc.Parent, "id") != "infra" {
			t.Fatalf("%s must sit under infra", id)
		}
	}
}

func TestMoveMany_Atomicity(t *testing.T) {
	doc := parseDoc(t, groupDoc)
	before := dump(t, doc)

	// Unknown id anywhere in the list fails the whole call up front.
	wantOpError(t, MoveMany(doc, []string{"web", "ghost"}, "infra"), diag.OpNotFound)
	if dump(t, doc) != before {
		t.Fatal("failed move-many must not mutate the document")
	}

	// Duplicate ids in the list are rejected.
	if err := MoveMany(doc, []string{"web", "web"}, "infra"); err == nil {
		t.Fatal("duplicate ids must be rejected")
	}
	if dump(t, doc) != before {
		t.Fatal("failed move-many must not mutate the document")
	}

	// A destination inside one of the moved subtrees is invalid.
	if err := MoveMany(doc, []string{"infra"}, "cache"); err == nil {
		t.Fatal("destination inside a moved subtree must be rejected")
	}
	if dump(t, doc) != before {
		t.Fatal("failed move-many must not mutate the document")
	}
}
