// Package opsfile parses the batch operations file. The schema is
// closed: unknown op names and unknown fields are rejected with the
// offending path, before any operation runs.
package opsfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ilo/internal/diag"
)

// Op is one parsed operation of an ops file.
type Op interface {
	// Name returns the op discriminator, e.g. "relation.add".
	Name() string
}

// File is a parsed ops file.
type File struct {
	Ops []Op
}

// Load reads and parses an ops file from disk.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	file, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse decodes ops file source. The root must be a mapping with a
// non-empty ops list.
func Parse(raw []byte) (*File, error) {
	var root struct {
		Ops []yaml.Node `yaml:"ops"`
	}
	if err := strictUnmarshal(raw, &root); err != nil {
		return nil, schemaError("ops", err)
	}
	if len(root.Ops) == 0 {
		return nil, schemaErrorf("ops", "must contain at least one operation (example op: rename.resource)")
	}

	file := &File{Ops: make([]Op, 0, len(root.Ops))}
	for i := range root.Ops {
		op, err := decodeOp(&root.Ops[i])
		if err != nil {
			return nil, schemaError(fmt.Sprintf("ops[%d]", i), err)
		}
		file.Ops = append(file.Ops, op)
	}
	return file, nil
}

func decodeOp(node *yaml.Node) (Op, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("operation must be a mapping/object")
	}
	var head struct {
		Op string `yaml:"op"`
	}
	if err := node.Decode(&head); err != nil {
		return nil, err
	}
	if head.Op == "" {
		return nil, fmt.Errorf("missing op discriminator (example op: rename.resource)")
	}
	factory, ok := opFactories[head.Op]
	if !ok {
		return nil, fmt.Errorf("unknown op: %s (known ops: %s)", head.Op, strings.Join(knownOpNames(), ", "))
	}
	op := factory()
	if err := strictDecodeNode(node, op); err != nil {
		return nil, err
	}
	if v, ok := op.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	return op, nil
}

// strictDecodeNode re-encodes the node and decodes it with KnownFields,
// since yaml.Node.Decode has no strict mode of its own.
func strictDecodeNode(node *yaml.Node, out any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(node); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return strictUnmarshal(buf.Bytes(), out)
}

func strictUnmarshal(raw []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return cleanDecodeError(err)
	}
	return nil
}

// cleanDecodeError strips the decoder's "yaml: unmarshal errors:"
// preamble so messages read as one line per issue.
func cleanDecodeError(err error) error {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, "yaml: unmarshal errors:\n")
	msg = strings.TrimPrefix(msg, "yaml: ")
	var lines []string
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "line ")
		if i := strings.Index(line, ": "); i > 0 && isDigits(line[:i]) {
			line = line[i+2:]
		}
		lines = append(lines, line)
	}
	return fmt.Errorf("%s", strings.Join(lines, "; "))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func schemaError(path string, err error) error {
	return &diag.OpError{Code: diag.OpSchema, Msg: fmt.Sprintf("invalid ops file:\n- %s: %s", path, err)}
}

func schemaErrorf(path, format string, args ...any) error {
	return schemaError(path, fmt.Errorf(format, args...))
}
