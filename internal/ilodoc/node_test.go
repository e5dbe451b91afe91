package ilodoc

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func parseDoc(t *testing.T, raw string) *Document {
	t.Helper()
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	doc, err := New(&root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return doc
}

func TestMapGetSetDelete(t *testing.T) {
	m := Map()
	if got := MapGet(m, "missing"); got != nil {
		t.Fatalf("expected nil for missing key, got %v", got)
	}

	MapSet(m, "name", Str("db"))
	if got := StrValue(m, "name"); got != "db" {
		t.Fatalf("StrValue = %q, want db", got)
	}

	MapSet(m, "name", Str("postgres"))
	if got := StrValue(m, "name"); got != "postgres" {
		t.Fatalf("StrValue after overwrite = %q, want postgres", got)
	}
	if len(m.Content) != 2 {
		t.Fatalf("overwrite must not grow the mapping, len = %d", len(m.Content))
	}

	if !MapDelete(m, "name") {
		t.Fatal("MapDelete reported no deletion")
	}
	if MapHas(m, "name") {
		t.Fatal("key survived MapDelete")
	}
	if MapDelete(m, "name") {
		t.Fatal("second MapDelete must be a no-op")
	}
}

func TestScalarAccessors(t *testing.T) {
	doc := parseDoc(t, `resources:
  - id: db
    hidden: true
    scale: 1.5
`)
	resource := doc.Resources().Content[0]
	if !BoolValue(resource, "hidden") {
		t.Fatal("BoolValue(hidden) = false")
	}
	if BoolValue(resource, "missing") {
		t.Fatal("BoolValue on missing key must be false")
	}
	scale, ok := FloatValue(resource, "scale")
	if !ok || scale != 1.5 {
		t.Fatalf("FloatValue = %v, %v", scale, ok)
	}
	if _, ok := FloatValue(resource, "missing"); ok {
		t.Fatal("FloatValue on missing key must report false")
	}
}

func TestEnsureSeqAndMap(t *testing.T) {
	m := Map()
	seq := EnsureSeq(m, "children")
	if !IsSeq(seq) {
		t.Fatal("EnsureSeq did not produce a sequence")
	}
	if again := EnsureSeq(m, "children"); again != seq {
		t.Fatal("EnsureSeq must return the existing node")
	}

	inner := EnsureMap(m, "sequence")
	if !IsMap(inner) {
		t.Fatal("EnsureMap did not produce a mapping")
	}
	if again := EnsureMap(m, "sequence"); again != inner {
		t.Fatal("EnsureMap must return the existing node")
	}
}

func TestSeqInsertRemove(t *testing.T) {
	seq := Seq()
	seq.Content = append(seq.Content, Str("a"), Str("c"))
	SeqInsert(seq, 1, Str("b"))
	var got []string
	for _, n := range seq.Content {
		got = append(got, n.Value)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("after insert: %v", got)
	}
	SeqRemove(seq, 1)
	if len(seq.Content) != 2 || seq.Content[1].Value != "c" {
		t.Fatalf("after remove: %v", seq.Content)
	}
}

func TestClone_Independent(t *testing.T) {
	doc := parseDoc(t, `resources:
  - id: db
    children:
      - name: table
`)
	original := doc.Resources().Content[0]
	clone := Clone(original)
	MapSet(clone, "id", Str("copy"))

	if StrValue(original, "id") != "db" {
		t.Fatal("mutating the clone changed the original")
	}
	if StrValue(clone, "id") != "copy" {
		t.Fatal("clone did not take the new id")
	}
}

func TestClearAnchors(t *testing.T) {
	doc := parseDoc(t, `resources:
  - id: db
    style: &s
      color: red
  - id: api
    style: *s
`)
	clone := Clone(doc.Resources().Content[0])
	ClearAnchors(clone)
	style := MapGet(clone, "style")
	if style == nil || style.Anchor != "" {
		t.Fatalf("anchor survived ClearAnchors: %+v", style)
	}
}

func TestImportNamespaces(t *testing.T) {
	doc := parseDoc(t, `imports:
  - from: ilograph/aws
    namespace: AWS
resources:
  - id: db
`)
	namespaces := doc.ImportNamespaces()
	if !namespaces["AWS"] {
		t.Fatalf("expected AWS namespace, got %v", namespaces)
	}
}
