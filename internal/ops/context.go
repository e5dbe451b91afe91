package ops

import (
	"strings"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
	"ilo/internal/refs"
)

// ContextInfo is one row of a context listing.
type ContextInfo struct {
	Name    string
	Extends []string
	Hidden  bool
}

// ListContexts returns a summary row per context, in document order.
func ListContexts(doc *ilodoc.Document) []ContextInfo {
	var out []ContextInfo
	for _, loc := range index.Contexts(doc) {
		out = append(out, ContextInfo{
			Name:    loc.Name,
			Extends: splitExtendsList(ilodoc.RawStrValue(loc.Node, ilodoc.KeyExtends)),
			Hidden:  ilodoc.BoolValue(loc.Node, "hidden"),
		})
	}
	return out
}

// CreateContext appends a context with the given name. The extends
// target must exist.
func CreateContext(doc *ilodoc.Document, name, extends string, hidden bool) error {
	if err := checkNewContextName(doc, name); err != nil {
		return err
	}
	if extends != "" {
		if _, err := index.Context(doc, extends); err != nil {
			return err
		}
	}
	context := ilodoc.Map()
	ilodoc.MapSet(context, ilodoc.KeyName, ilodoc.Str(name))
	if extends != "" {
		ilodoc.MapSet(context, ilodoc.KeyExtends, ilodoc.Str(extends))
	}
	if hidden {
		ilodoc.MapSet(context, "hidden", ilodoc.Bool(true))
	}
	seq := doc.EnsureContexts()
	seq.Content = append(seq.Content, context)
	return nil
}

// RenameContext changes a context name and rewrites extends chains that
// point at the old name.
func RenameContext(doc *ilodoc.Document, oldName, newName string) error {
	loc, err := index.Context(doc, oldName)
	if err != nil {
		return err
	}
	if refs.NormalizeIdent(newName) != refs.NormalizeIdent(oldName) {
		if err := checkNewContextName(doc, newName); err != nil {
			return err
		}
	}
	ilodoc.MapSet(loc.Node, ilodoc.KeyName, ilodoc.Str(newName))
	for _, other := range index.Contexts(doc) {
		rewriteContextExtends(other.Node, oldName, newName)
	}
	return nil
}

// DeleteContext removes a context. Contexts extending it keep working
// only with force, which detaches them first.
func DeleteContext(doc *ilodoc.Document, name string, force bool) error {
	loc, err := index.Context(doc, name)
	if err != nil {
		return err
	}
	var dependents []index.ContextLocation
	for _, other := range index.Contexts(doc) {
		if other.Node == loc.Node {
			continue
		}
		base := ilodoc.StrValue(other.Node, ilodoc.KeyExtends)
		if base != "" && refs.NormalizeIdent(base) == refs.NormalizeIdent(name) {
			dependents = append(dependents, other)
		}
	}
	if len(dependents) > 0 && !force {
		names := make([]string, len(dependents))
		for i, d := range dependents {
			names[i] = d.Name
		}
		return errSchema("context %s is extended by %s (pass force to delete and detach them)", name, strings.Join(names, ", "))
	}
	for _, dependent := range dependents {
		ilodoc.MapDelete(dependent.Node, ilodoc.KeyExtends)
	}
	ilodoc.SeqRemove(loc.Container, loc.Index)
	contexts := doc.Contexts()
	if ilodoc.IsSeq(contexts) && len(contexts.Content) == 0 {
		ilodoc.MapDelete(doc.Map, ilodoc.KeyContexts)
	}
	return nil
}

// CopyContext deep-copies a context under a new name.
func CopyContext(doc *ilodoc.Document, name, newName string) error {
	loc, err := index.Context(doc, name)
	if err != nil {
		return err
	}
	if err := checkNewContextName(doc, newName); err != nil {
		return err
	}
	clone := ilodoc.Clone(loc.Node)
	ilodoc.ClearAnchors(clone)
	ilodoc.MapSet(clone, ilodoc.KeyName, ilodoc.Str(newName))
	seq := doc.EnsureContexts()
	seq.Content = append(seq.Content, clone)
	return nil
}

// ReorderContext moves the context to the 1-based position.
func ReorderContext(doc *ilodoc.Document, name string, position int) error {
	loc, err := index.Context(doc, name)
	if err != nil {
		return err
	}
	size := len(loc.Container.Content)
	if position < 1 || position > size {
		return errIndexRange("position out of range: %d (valid range: 1..%d)", position, size)
	}
	ilodoc.SeqRemove(loc.Container, loc.Index)
	ilodoc.SeqInsert(loc.Container, position-1, loc.Node)
	return nil
}

// SetContextField sets a scalar field on the context. The name field is
// managed by rename and cannot be set here.
func SetContextField(doc *ilodoc.Document, name, field, value string) error {
	if field == ilodoc.KeyName {
		return errSchema("use context rename to change a context name")
	}
	loc, err := index.Context(doc, name)
	if err != nil {
		return err
	}
	if field == ilodoc.KeyExtends {
		if _, err := index.Context(doc, value); err != nil {
			return err
		}
	}
	ilodoc.MapSet(loc.Node, field, ilodoc.Str(value))
	return nil
}

// UnsetContextField removes a scalar field from the context.
func UnsetContextField(doc *ilodoc.Document, name, field string) error {
	if field == ilodoc.KeyName {
		return errSchema("context name cannot be unset")
	}
	loc, err := index.Context(doc, name)
	if err != nil {
		return err
	}
	if !ilodoc.MapDelete(loc.Node, field) {
		return errNotFound("context %s has no field %s", name, field)
	}
	return nil
}

func checkNewContextName(doc *ilodoc.Document, name string) error {
	if strings.TrimSpace(name) == "" {
		return errSchema("context name must not be empty")
	}
	if _, err := index.Context(doc, name); err == nil {
		return errAlreadyExists("context name already in use: %s", name)
	}
	return nil
}

func rewriteContextExtends(context *yaml.Node, oldName, newName string) {
	base := ilodoc.StrValue(context, ilodoc.KeyExtends)
	if base != "" && refs.NormalizeIdent(base) == refs.NormalizeIdent(oldName) {
		ilodoc.MapSet(context, ilodoc.KeyExtends, ilodoc.Str(newName))
	}
}
