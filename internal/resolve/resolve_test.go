package resolve

import (
	"testing"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
)

func parseDoc(t *testing.T, raw string) *ilodoc.Document {
	t.Helper()
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	doc, err := ilodoc.New(&root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return doc
}

const resolveDoc = `imports:
  - from: ilograph/aws
    namespace: aws
resources:
  - id: vpc
    children:
      - id: db
        name: Postgres
  - name: Cache
  - name: Cache
perspectives:
  - id: deps
    aliases:
      - alias: primary
        for: db
`

func TestReference_Statuses(t *testing.T) {
	doc := parseDoc(t, resolveDoc)

	tests := []struct {
		name      string
		reference string
		status    Status
	}{
		{"explicit id", "db", StatusResolved},
		{"display name", "Postgres", StatusResolved},
		{"unknown token", "ghost", StatusUnresolved},
		{"duplicate name", "Cache", StatusAmbiguous},
		{"special none", "none", StatusSpecial},
		{"wildcard", "db*", StatusWildcard},
		{"bracket literal", "[External]", StatusLiteral},
		{"imported namespace", "aws::S3", StatusImportedNS},
		{"unknown namespace", "gcp::Bucket", StatusUnresolvedNS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Reference(doc, tt.reference, "")
			if len(rows) != 1 {
				t.Fatalf("expected one row, got %v", rows)
			}
			if rows[0].Status != tt.status {
				t.Fatalf("status = %s, want %s", rows[0].Status, tt.status)
			}
		})
	}
}

func TestReference_IDBeatsMatchingName(t *testing.T) {
	doc := parseDoc(t, `resources:
  - id: worker
  - id: queue
    name: worker
`)
	rows := Reference(doc, "worker", "")
	if len(rows) != 1 || rows[0].Status != StatusResolved {
		t.Fatalf("expected a resolved row, got %v", rows)
	}
	if rows[0].Details != "resources[0]" {
		t.Fatalf("details = %q, want the id-bearing resource", rows[0].Details)
	}
}

func TestReference_AliasNeedsPerspective(t *testing.T) {
	doc := parseDoc(t, resolveDoc)

	rows := Reference(doc, "primary", "deps")
	if len(rows) != 1 || rows[0].Status != StatusAlias {
		t.Fatalf("expected alias row, got %v", rows)
	}
	if rows[0].Details != "db" {
		t.Fatalf("alias target = %q", rows[0].Details)
	}

	// Without the perspective the alias is just an unknown token.
	rows = Reference(doc, "primary", "")
	if len(rows) != 1 || rows[0].Status != StatusUnresolved {
		t.Fatalf("expected unresolved without perspective, got %v", rows)
	}
}

func TestReference_PathComponents(t *testing.T) {
	doc := parseDoc(t, resolveDoc)
	rows := Reference(doc, "vpc/db", "")
	if len(rows) != 2 {
		t.Fatalf("expected a row per path component, got %v", rows)
	}
	for _, row := range rows {
		if row.Status != StatusResolved {
			t.Fatalf("unexpected status in %v", rows)
		}
	}
}

func TestReference_Empty(t *testing.T) {
	rows := Reference(parseDoc(t, resolveDoc), "", "")
	if len(rows) != 1 || rows[0].Status != StatusEmpty {
		t.Fatalf("expected empty row, got %v", rows)
	}
}

func TestRow_Fatal(t *testing.T) {
	fatalStatuses := []Status{StatusAmbiguous, StatusUnresolved, StatusUnresolvedNS}
	for _, status := range fatalStatuses {
		if !(Row{Status: status}).Fatal() {
			t.Fatalf("%s must be fatal", status)
		}
	}
	for _, status := range []Status{StatusResolved, StatusAlias, StatusSpecial, StatusWildcard, StatusLiteral, StatusImportedNS} {
		if (Row{Status: status}).Fatal() {
			t.Fatalf("%s must not be fatal", status)
		}
	}
}

func TestIdentifiers(t *testing.T) {
	doc := parseDoc(t, resolveDoc)
	ids, _ := Identifiers(doc, "db, primary, none, [External], db", "deps")
	// db resolves, primary is an alias, the rest are skipped; dedup keeps
	// the first db only. The alias row's token is the alias itself.
	if len(ids) != 2 || ids[0] != "db" || ids[1] != "primary" {
		t.Fatalf("ids = %v", ids)
	}
}
