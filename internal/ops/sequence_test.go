package ops

import (
	"testing"

	"gopkg.in/yaml.v3"

	"ilo/internal/diag"
	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

const sequenceDoc = `resources:
- id: client
- id: api
- id: db
perspectives:
- id: flow
  sequence:
    start: client
    steps:
    - to: api
      label: request
    - to: db
- id: bare
`

func sequenceOf(t *testing.T, doc *ilodoc.Document, perspectiveID string) *yaml.Node {
	t.Helper()
	loc, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		t.Fatalf("perspective %s: %v", perspectiveID, err)
	}
	return ilodoc.MapGet(loc.Node, ilodoc.KeySequence)
}

func TestSetSequenceStart(t *testing.T) {
	doc := parseDoc(t, sequenceDoc)

	// Creates the sequence block on a perspective that has none.
	if err := SetSequenceStart(doc, "bare", "client"); err != nil {
		t.Fatalf("SetSequenceStart: %v", err)
	}
	seq := sequenceOf(t, doc, "bare")
	if got := ilodoc.StrValue(seq, "start"); got != "client" {
		t.Fatalf("start = %q, want client", got)
	}

	// Replaces the start without touching existing steps.
	if err := SetSequenceStart(doc, "flow", "api"); err != nil {
		t.Fatalf("SetSequenceStart on existing sequence: %v", err)
	}
	seq = sequenceOf(t, doc, "flow")
	if got := ilodoc.StrValue(seq, "start"); got != "api" {
		t.Fatalf("start = %q, want api", got)
	}
	if steps := ilodoc.MapGet(seq, ilodoc.KeySteps); !ilodoc.IsSeq(steps) || len(steps.Content) != 2 {
		t.Fatal("existing steps should survive a start change")
	}

	err := SetSequenceStart(doc, "flow", "")
	wantOpError(t, err, diag.OpSchema)
	err = SetSequenceStart(doc, "ghost", "client")
	wantOpError(t, err, diag.OpNotFound)
}

func TestAddSequenceStep(t *testing.T) {
	doc := parseDoc(t, sequenceDoc)

	// Position 0 appends.
	if err := AddSequenceStep(doc, "flow", SequenceStep{"toAndBack": "client", "label": "reply"}, 0); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Position 1 inserts at the front.
	if err := AddSequenceStep(doc, "flow", SequenceStep{"toAsync": "db"}, 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	steps := ilodoc.MapGet(sequenceOf(t, doc, "flow"), ilodoc.KeySteps)
	if len(steps.Content) != 4 {
		t.Fatalf("steps = %d, want 4", len(steps.Content))
	}
	if got := ilodoc.StrValue(steps.Content[0], "toAsync"); got != "db" {
		t.Fatalf("step 1 toAsync = %q, want db", got)
	}
	if got := ilodoc.StrValue(steps.Content[3], "toAndBack"); got != "client" {
		t.Fatalf("step 4 toAndBack = %q, want client", got)
	}

	err := AddSequenceStep(doc, "flow", SequenceStep{"to": "db"}, 9)
	wantOpError(t, err, diag.OpIndexRange)
	err = AddSequenceStep(doc, "flow", SequenceStep{"label": "no direction"}, 0)
	wantOpError(t, err, diag.OpSchema)
	err = AddSequenceStep(doc, "flow", SequenceStep{"to": "db", "restartAt": "client"}, 0)
	wantOpError(t, err, diag.OpSchema)
	err = AddSequenceStep(doc, "bare", SequenceStep{"to": "db"}, 0)
	wantOpError(t, err, diag.OpNotFound)
}

func TestEditSequenceStep(t *testing.T) {
	doc := parseDoc(t, sequenceDoc)

	// A new direction key replaces the step's old one.
	if err := EditSequenceStep(doc, "flow", 1, SequenceStep{"toAndBack": "db", "color": "red"}, []string{"label"}); err != nil {
		t.Fatalf("EditSequenceStep: %v", err)
	}
	steps := ilodoc.MapGet(sequenceOf(t, doc, "flow"), ilodoc.KeySteps)
	step := steps.Content[0]
	if ilodoc.MapHas(step, "to") || ilodoc.MapHas(step, "label") {
		t.Fatal("old direction and cleared label should be gone")
	}
	if got := ilodoc.StrValue(step, "toAndBack"); got != "db" {
		t.Fatalf("toAndBack = %q, want db", got)
	}
	if got := ilodoc.StrValue(step, "color"); got != "red" {
		t.Fatalf("color = %q, want red", got)
	}

	err := EditSequenceStep(doc, "flow", 5, SequenceStep{"to": "db"}, nil)
	wantOpError(t, err, diag.OpIndexRange)
	err = EditSequenceStep(doc, "flow", 1, SequenceStep{"bogus": "x"}, nil)
	wantOpError(t, err, diag.OpSchema)
	err = EditSequenceStep(doc, "flow", 1, SequenceStep{"label": "x"}, []string{"label"})
	wantOpError(t, err, diag.OpSchema)
}

func TestEditSequenceStep_CannotClearOnlyDirection(t *testing.T) {
	doc := parseDoc(t, sequenceDoc)
	before := dump(t, doc)
	err := EditSequenceStep(doc, "flow", 2, SequenceStep{"label": "orphan"}, []string{"to"})
	wantOpError(t, err, diag.OpSchema)
	if after := dump(t, doc); after != before {
		t.Fatalf("rejected edit changed the document:\n%s", after)
	}
}

func TestRemoveSequenceStep(t *testing.T) {
	doc := parseDoc(t, sequenceDoc)
	if err := RemoveSequenceStep(doc, "flow", 1); err != nil {
		t.Fatalf("RemoveSequenceStep: %v", err)
	}
	steps := ilodoc.MapGet(sequenceOf(t, doc, "flow"), ilodoc.KeySteps)
	if len(steps.Content) != 1 {
		t.Fatalf("steps = %d, want 1", len(steps.Content))
	}
	if got := ilodoc.StrValue(steps.Content[0], "to"); got != "db" {
		t.Fatalf("remaining step to = %q, want db", got)
	}

	err := RemoveSequenceStep(doc, "flow", 0)
	wantOpError(t, err, diag.OpIndexRange)

	// Removing the last step drops the steps key but keeps the start.
	if err := RemoveSequenceStep(doc, "flow", 1); err != nil {
		t.Fatalf("remove last step: %v", err)
	}
	seq := sequenceOf(t, doc, "flow")
	if ilodoc.MapGet(seq, ilodoc.KeySteps) != nil {
		t.Fatal("emptied steps key should be removed")
	}
	if got := ilodoc.StrValue(seq, "start"); got != "client" {
		t.Fatalf("start = %q after step removal, want client", got)
	}

	err = RemoveSequenceStep(doc, "flow", 1)
	wantOpError(t, err, diag.OpNotFound)
}

func TestClearSequence(t *testing.T) {
	doc := parseDoc(t, sequenceDoc)
	if err := ClearSequence(doc, "flow"); err != nil {
		t.Fatalf("ClearSequence: %v", err)
	}
	if sequenceOf(t, doc, "flow") != nil {
		t.Fatal("sequence block should be removed")
	}
	err := ClearSequence(doc, "flow")
	wantOpError(t, err, diag.OpNotFound)
}
