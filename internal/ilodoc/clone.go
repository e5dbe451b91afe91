package ilodoc

import "gopkg.in/yaml.v3"

// Clone deep-copies a node tree. Alias targets are remapped onto the
// cloned anchors so the copy never points back into the source tree.
func Clone(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	mapping := make(map[*yaml.Node]*yaml.Node)
	out := cloneInto(n, mapping)
	relinkAliases(out, mapping)
	return out
}

// ClearAnchors strips anchors and resolves alias nodes in place. Used for
// cloned resources and perspectives so the duplicate does not share anchors
// with the original.
func ClearAnchors(n *yaml.Node) {
	if n == nil {
		return
	}
	n.Anchor = ""
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		resolved := Clone(n.Alias)
		resolved.Anchor = ""
		*n = *resolved
	}
	for _, child := range n.Content {
		ClearAnchors(child)
	}
}

func cloneInto(n *yaml.Node, mapping map[*yaml.Node]*yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := &yaml.Node{
		Kind:        n.Kind,
		Style:       n.Style,
		Tag:         n.Tag,
		Value:       n.Value,
		Anchor:      n.Anchor,
		Alias:       n.Alias, // relinked afterwards
		HeadComment: n.HeadComment,
		LineComment: n.LineComment,
		FootComment: n.FootComment,
		Line:        n.Line,
		Column:      n.Column,
	}
	mapping[n] = out
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = cloneInto(child, mapping)
		}
	}
	return out
}

func relinkAliases(n *yaml.Node, mapping map[*yaml.Node]*yaml.Node) {
	if n == nil {
		return
	}
	if n.Alias != nil {
		if cloned, ok := mapping[n.Alias]; ok {
			n.Alias = cloned
		}
	}
	for _, child := range n.Content {
		relinkAliases(child, mapping)
	}
}
