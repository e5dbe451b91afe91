package ilodoc

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Well-known top-level and nested keys of an Ilograph document.
const (
	KeyResources    = "resources"
	KeyName         = "name"
	KeyID           = "id"
	KeySubtitle     = "subtitle"
	KeyInstanceOf   = "instanceOf"
	KeyPerspectives = "perspectives"
	KeyContexts     = "contexts"
	KeyImports      = "imports"
	KeyChildren     = "children"
	KeyRelations    = "relations"
	KeyOverrides    = "overrides"
	KeyAliases      = "aliases"
	KeySequence     = "sequence"
	KeyWalkthrough  = "walkthrough"
	KeySteps        = "steps"
	KeyExtends      = "extends"
)

// Document wraps a parsed Ilograph diagram. Root is the yaml document
// node, Map its top-level mapping. All mutation happens on this tree.
type Document struct {
	Root *yaml.Node
	Map  *yaml.Node
}

// New wraps a parsed document node. A nil or empty document yields an
// empty top-level mapping.
func New(root *yaml.Node) (*Document, error) {
	if root == nil {
		m := Map()
		return &Document{
			Root: &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{m}},
			Map:  m,
		}, nil
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("yaml root must be a document node")
	}
	top := root.Content[0]
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		top = Map()
		root.Content[0] = top
	}
	if !IsMap(top) {
		return nil, fmt.Errorf("yaml root must be a mapping/object")
	}
	return &Document{Root: root, Map: top}, nil
}

// Clone deep-copies the whole document for transactional editing.
func (d *Document) Clone() *Document {
	root := Clone(d.Root)
	return &Document{Root: root, Map: root.Content[0]}
}

// Resources returns the top-level resource sequence, or nil.
func (d *Document) Resources() *yaml.Node { return MapGet(d.Map, KeyResources) }

// Perspectives returns the perspectives sequence, or nil.
func (d *Document) Perspectives() *yaml.Node { return MapGet(d.Map, KeyPerspectives) }

// Contexts returns the contexts sequence, or nil.
func (d *Document) Contexts() *yaml.Node { return MapGet(d.Map, KeyContexts) }

// Imports returns the imports sequence, or nil.
func (d *Document) Imports() *yaml.Node { return MapGet(d.Map, KeyImports) }

// EnsureResources returns the resources sequence, creating it when missing.
func (d *Document) EnsureResources() *yaml.Node { return EnsureSeq(d.Map, KeyResources) }

// EnsurePerspectives returns the perspectives sequence, creating it when missing.
func (d *Document) EnsurePerspectives() *yaml.Node { return EnsureSeq(d.Map, KeyPerspectives) }

// EnsureContexts returns the contexts sequence, creating it when missing.
func (d *Document) EnsureContexts() *yaml.Node { return EnsureSeq(d.Map, KeyContexts) }

// ImportNamespaces collects the declared import namespaces.
func (d *Document) ImportNamespaces() map[string]bool {
	namespaces := make(map[string]bool)
	imports := d.Imports()
	if !IsSeq(imports) {
		return namespaces
	}
	for _, item := range imports.Content {
		if !IsMap(item) {
			continue
		}
		if ns := StrValue(item, "namespace"); ns != "" {
			namespaces[ns] = true
		}
	}
	return namespaces
}
