package ilodoc

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Helpers over the parsed YAML node tree. The engine edits the tree in
// place so that comments, key order, and styles of untouched fields
// round-trip through serialization.

func IsMap(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.MappingNode
}

func IsSeq(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.SequenceNode
}

func IsScalar(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode
}

// MapGet returns the value node for key, or nil.
func MapGet(m *yaml.Node, key string) *yaml.Node {
	if !IsMap(m) {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// MapHas reports whether the mapping contains key.
func MapHas(m *yaml.Node, key string) bool {
	return MapGet(m, key) != nil
}

// MapSet replaces the value for key, appending the pair when absent.
func MapSet(m *yaml.Node, key string, value *yaml.Node) {
	if !IsMap(m) {
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, Str(key), value)
}

// MapDelete removes key from the mapping, reporting whether it was present.
func MapDelete(m *yaml.Node, key string) bool {
	if !IsMap(m) {
		return false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

// MapKeys returns the mapping keys in document order.
func MapKeys(m *yaml.Node) []string {
	if !IsMap(m) {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// StrValue returns the trimmed scalar string for key, or "".
func StrValue(m *yaml.Node, key string) string {
	v := MapGet(m, key)
	if !IsScalar(v) || (v.Tag != "!!str" && v.Tag != "" && v.Tag != "!") {
		return ""
	}
	return strings.TrimSpace(v.Value)
}

// RawStrValue returns the untrimmed scalar string for key, or "".
func RawStrValue(m *yaml.Node, key string) string {
	v := MapGet(m, key)
	if !IsScalar(v) {
		return ""
	}
	return v.Value
}

// BoolValue returns the boolean for key; absent or non-bool is false.
func BoolValue(m *yaml.Node, key string) bool {
	v := MapGet(m, key)
	if !IsScalar(v) || v.Tag != "!!bool" {
		return false
	}
	b, err := strconv.ParseBool(v.Value)
	return err == nil && b
}

// FloatValue returns the numeric value for key, if any.
func FloatValue(m *yaml.Node, key string) (float64, bool) {
	v := MapGet(m, key)
	if !IsScalar(v) || (v.Tag != "!!int" && v.Tag != "!!float") {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Str builds a plain string scalar node.
func Str(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// Bool builds a boolean scalar node.
func Bool(value bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(value)}
}

// Float builds a numeric scalar node, using int formatting when exact.
func Float(value float64) *yaml.Node {
	if value == float64(int64(value)) {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(value), 10)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(value, 'g', -1, 64)}
}

// Map builds an empty block mapping node.
func Map() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// Seq builds an empty block sequence node.
func Seq() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

// SeqInsert inserts item at the 0-based position, appending when idx == len.
func SeqInsert(seq *yaml.Node, idx int, item *yaml.Node) {
	if !IsSeq(seq) || idx < 0 || idx > len(seq.Content) {
		return
	}
	seq.Content = append(seq.Content, nil)
	copy(seq.Content[idx+1:], seq.Content[idx:])
	seq.Content[idx] = item
}

// SeqRemove removes the item at the 0-based position.
func SeqRemove(seq *yaml.Node, idx int) {
	if !IsSeq(seq) || idx < 0 || idx >= len(seq.Content) {
		return
	}
	seq.Content = append(seq.Content[:idx], seq.Content[idx+1:]...)
}

// EnsureSeq returns the sequence at key, creating an empty one when missing
// or when the existing value is not a sequence.
func EnsureSeq(m *yaml.Node, key string) *yaml.Node {
	if existing := MapGet(m, key); IsSeq(existing) {
		return existing
	}
	seq := Seq()
	MapSet(m, key, seq)
	return seq
}

// EnsureMap returns the mapping at key, creating an empty one when missing.
func EnsureMap(m *yaml.Node, key string) *yaml.Node {
	if existing := MapGet(m, key); IsMap(existing) {
		return existing
	}
	mp := Map()
	MapSet(m, key, mp)
	return mp
}
