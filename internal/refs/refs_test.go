package refs

import (
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{
			name:     "plain comma list",
			raw:      "db, api, web",
			expected: []string{"db", "api", "web"},
		},
		{
			name:     "single part",
			raw:      "db",
			expected: []string{"db"},
		},
		{
			name:     "comma inside bracket literal stays put",
			raw:      "[S3, us-east-1], api",
			expected: []string{"[S3, us-east-1]", "api"},
		},
		{
			name:     "comma inside parentheses stays put",
			raw:      "api (read, write), db",
			expected: []string{"api (read, write)", "db"},
		},
		{
			name:     "comma inside double quotes stays put",
			raw:      `"a, b", c`,
			expected: []string{`"a, b"`, "c"},
		},
		{
			name:     "empty segments dropped",
			raw:      "a,, b,",
			expected: []string{"a", "b"},
		},
		{
			name:     "empty input",
			raw:      "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitList(tt.raw)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("SplitList(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestParseComponents(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		tokens []string
	}{
		{
			name:   "path components",
			raw:    "vpc/subnet/db",
			tokens: []string{"vpc", "subnet", "db"},
		},
		{
			name:   "descendant separator",
			raw:    "vpc//db",
			tokens: []string{"vpc", "db"},
		},
		{
			name:   "relative prefix",
			raw:    "../db",
			tokens: []string{"db"},
		},
		{
			name:   "clone suffix stripped",
			raw:    "db *replica",
			tokens: []string{"db"},
		},
		{
			name:   "slash inside bracket literal kept",
			raw:    "[a/b]",
			tokens: []string{"a/b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components := ParseComponents(tt.raw)
			var tokens []string
			for _, c := range components {
				tokens = append(tokens, c.Token)
			}
			if !reflect.DeepEqual(tokens, tt.tokens) {
				t.Fatalf("ParseComponents(%q) tokens = %v, want %v", tt.raw, tokens, tt.tokens)
			}
		})
	}
}

func TestParseComponents_Flags(t *testing.T) {
	relative := ParseComponents("../db")
	if len(relative) != 1 || !relative[0].Relative {
		t.Fatalf("expected relative component, got %+v", relative)
	}

	literal := ParseComponents("[External API]")
	if len(literal) != 1 || !literal[0].Literal {
		t.Fatalf("expected literal component, got %+v", literal)
	}

	special := ParseComponents("none")
	if len(special) != 1 || !special[0].Special {
		t.Fatalf("expected special component, got %+v", special)
	}

	wildcard := ParseComponents("db*")
	if len(wildcard) != 1 || !wildcard[0].Wildcard {
		t.Fatalf("expected wildcard component, got %+v", wildcard)
	}

	namespaced := ParseComponents("aws::S3")
	if len(namespaced) != 1 || !namespaced[0].Namespaced {
		t.Fatalf("expected namespaced component, got %+v", namespaced)
	}
}

func TestExtractTokens(t *testing.T) {
	tokens := ExtractTokens("db, [External], *, none, api/cache")
	expected := map[string]bool{"db": true, "api": true, "cache": true}
	if !reflect.DeepEqual(tokens, expected) {
		t.Fatalf("ExtractTokens = %v, want %v", tokens, expected)
	}
}

func TestContainsIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		identifier string
		expected   bool
	}{
		{"plain match", "db, api", "db", true},
		{"no match", "db, api", "cache", false},
		{"path component match", "vpc/db", "db", true},
		{"bracket literal never matches", "[db]", "db", false},
		{"clone suffix ignored", "db *replica", "replica", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsIdentifier(tt.raw, tt.identifier); got != tt.expected {
				t.Fatalf("ContainsIdentifier(%q, %q) = %v, want %v", tt.raw, tt.identifier, got, tt.expected)
			}
		})
	}
}

func TestReplaceIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		old      string
		new      string
		expected string
	}{
		{
			name:     "single token",
			raw:      "db",
			old:      "db",
			new:      "postgres",
			expected: "postgres",
		},
		{
			name:     "token in a list",
			raw:      "db, api",
			old:      "db",
			new:      "postgres",
			expected: "postgres, api",
		},
		{
			name:     "path component",
			raw:      "vpc/db/table",
			old:      "db",
			new:      "postgres",
			expected: "vpc/postgres/table",
		},
		{
			name:     "partial identifier untouched",
			raw:      "db2, mydb",
			old:      "db",
			new:      "postgres",
			expected: "db2, mydb",
		},
		{
			name:     "bracket literal untouched",
			raw:      "[db], db",
			old:      "db",
			new:      "postgres",
			expected: "[db], postgres",
		},
		{
			name:     "dotted neighbour untouched",
			raw:      "db.backup",
			old:      "db",
			new:      "postgres",
			expected: "db.backup",
		},
		{
			name:     "old equals new",
			raw:      "db",
			old:      "db",
			new:      "db",
			expected: "db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReplaceIdentifier(tt.raw, tt.old, tt.new); got != tt.expected {
				t.Fatalf("ReplaceIdentifier(%q, %q, %q) = %q, want %q", tt.raw, tt.old, tt.new, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdent(t *testing.T) {
	if got := NormalizeIdent("  db  "); got != "db" {
		t.Fatalf("NormalizeIdent trimming failed: %q", got)
	}
	// e + combining acute vs precomposed e-acute normalise to the same string.
	composed := NormalizeIdent("café")
	decomposed := NormalizeIdent("café")
	if composed != decomposed {
		t.Fatalf("NFC forms differ: %q vs %q", composed, decomposed)
	}
}

func TestFirstRestrictedChar(t *testing.T) {
	if got := FirstRestrictedChar("plain-id_1"); got != 0 {
		t.Fatalf("expected no restricted char, got %q", got)
	}
	if got := FirstRestrictedChar("bad/id"); got != '/' {
		t.Fatalf("expected '/', got %q", got)
	}
	if got := FirstRestrictedChar("a,b"); got != ',' {
		t.Fatalf("expected ',', got %q", got)
	}
}

func TestIsSpecialToken(t *testing.T) {
	for _, token := range []string{"*", "none", "None", "^"} {
		if !IsSpecialToken(token) {
			t.Fatalf("expected %q to be special", token)
		}
	}
	if IsSpecialToken("db") {
		t.Fatal("db must not be special")
	}
}
