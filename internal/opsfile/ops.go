package opsfile

import (
	"fmt"

	"ilo/internal/ilodoc"
	"ilo/internal/ops"
)

// Applier is implemented by every op; Apply mutates the document.
type Applier interface {
	Apply(doc *ilodoc.Document) error
}

// opFactories builds an op with its defaults per discriminator.
var opFactories = map[string]func() Op{
	"resource.create":       func() Op { return &ResourceCreateOp{Parent: "none"} },
	"resource.delete":       func() Op { return &ResourceDeleteOp{} },
	"resource.clone":        func() Op { return &ResourceCloneOp{} },
	"rename.resource":       func() Op { return &RenameResourceOp{} },
	"rename.resource-id":    func() Op { return &RenameResourceIDOp{} },
	"move.resource":         func() Op { return &MoveResourceOp{} },
	"group.create":          func() Op { return &GroupCreateOp{} },
	"group.move-many":       func() Op { return &MoveManyOp{} },
	"relation.add":          func() Op { return &RelationAddOp{} },
	"relation.add-many":     func() Op { return &RelationAddManyOp{} },
	"relation.remove":       func() Op { return &RelationRemoveOp{} },
	"relation.remove-match": func() Op { return &RelationRemoveMatchOp{RequireMatch: true} },
	"relation.edit":         func() Op { return &RelationEditOp{} },
	"relation.edit-match":   func() Op { return &RelationEditMatchOp{RequireMatch: true} },
	"fmt.stable":            func() Op { return &FmtStableOp{} },
}

func knownOpNames() []string {
	return []string{
		"fmt.stable",
		"group.create",
		"group.move-many",
		"move.resource",
		"relation.add",
		"relation.add-many",
		"relation.edit",
		"relation.edit-match",
		"relation.remove",
		"relation.remove-match",
		"rename.resource",
		"rename.resource-id",
		"resource.clone",
		"resource.create",
		"resource.delete",
	}
}

// targetSpec selects perspectives and contexts for bulk relation ops.
// Perspectives accepts a list or the single string "*".
type targetSpec struct {
	Perspectives anyStrings `yaml:"perspectives"`
	Contexts     []string   `yaml:"contexts"`
}

func (t targetSpec) target() ops.Target {
	perspectives := t.Perspectives.values
	if len(perspectives) == 0 {
		perspectives = []string{"*"}
	}
	return ops.Target{Perspectives: perspectives, Contexts: t.Contexts}
}

// anyStrings decodes either a single string or a list of strings.
type anyStrings struct {
	values []string
}

func (s *anyStrings) UnmarshalYAML(unmarshal func(any) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		s.values = []string{one}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return fmt.Errorf("expected string or list of strings")
	}
	s.values = many
	return nil
}

// relationFields carries optional relation payload fields. Pointers
// distinguish "absent" from "empty".
type relationFields struct {
	From           *string `yaml:"from"`
	To             *string `yaml:"to"`
	Via            *string `yaml:"via"`
	Label          *string `yaml:"label"`
	Description    *string `yaml:"description"`
	ArrowDirection *string `yaml:"arrowDirection"`
	Color          *string `yaml:"color"`
	Secondary      *bool   `yaml:"secondary"`
}

func (f relationFields) payload() ops.RelationPayload {
	payload := ops.RelationPayload{}
	setStr := func(key string, value *string) {
		if value != nil {
			payload[key] = *value
		}
	}
	setStr("from", f.From)
	setStr("to", f.To)
	setStr("via", f.Via)
	setStr("label", f.Label)
	setStr("description", f.Description)
	setStr("arrowDirection", f.ArrowDirection)
	setStr("color", f.Color)
	if f.Secondary != nil {
		payload["secondary"] = *f.Secondary
	}
	return payload
}

type ResourceCreateOp struct {
	OpName       string `yaml:"op"`
	ID           string `yaml:"id"`
	ResourceName string `yaml:"name"`
	Parent       string `yaml:"parent"`
	Subtitle     string `yaml:"subtitle"`
}

func (o *ResourceCreateOp) Name() string { return "resource.create" }

func (o *ResourceCreateOp) validate() error {
	if o.ID == "" || o.ResourceName == "" {
		return fmt.Errorf("resource.create requires id and name")
	}
	return nil
}

func (o *ResourceCreateOp) Apply(doc *ilodoc.Document) error {
	return ops.CreateResource(doc, ops.CreateResourceSpec{
		ID:       o.ID,
		Name:     o.ResourceName,
		Subtitle: o.Subtitle,
		Parent:   o.Parent,
	})
}

type ResourceDeleteOp struct {
	OpName        string `yaml:"op"`
	ID            string `yaml:"id"`
	DeleteSubtree bool   `yaml:"deleteSubtree"`
}

func (o *ResourceDeleteOp) Name() string { return "resource.delete" }

func (o *ResourceDeleteOp) validate() error {
	if o.ID == "" {
		return fmt.Errorf("resource.delete requires id")
	}
	return nil
}

func (o *ResourceDeleteOp) Apply(doc *ilodoc.Document) error {
	return ops.DeleteResource(doc, o.ID, o.DeleteSubtree)
}

type ResourceCloneOp struct {
	OpName       string `yaml:"op"`
	ID           string `yaml:"id"`
	NewID        string `yaml:"newId"`
	NewParent    string `yaml:"newParent"`
	NewName      string `yaml:"newName"`
	WithChildren bool   `yaml:"withChildren"`
}

func (o *ResourceCloneOp) Name() string { return "resource.clone" }

func (o *ResourceCloneOp) validate() error {
	if o.ID == "" || o.NewID == "" {
		return fmt.Errorf("resource.clone requires id and newId")
	}
	return nil
}

func (o *ResourceCloneOp) Apply(doc *ilodoc.Document) error {
	return ops.CloneResource(doc, ops.CloneResourceSpec{
		ID:           o.ID,
		NewID:        o.NewID,
		NewName:      o.NewName,
		NewParent:    o.NewParent,
		WithChildren: o.WithChildren,
	})
}

type RenameResourceOp struct {
	OpName  string `yaml:"op"`
	ID      string `yaml:"id"`
	NewName string `yaml:"name"`
}

func (o *RenameResourceOp) Name() string { return "rename.resource" }

func (o *RenameResourceOp) validate() error {
	if o.ID == "" || o.NewName == "" {
		return fmt.Errorf("rename.resource requires id and name")
	}
	return nil
}

func (o *RenameResourceOp) Apply(doc *ilodoc.Document) error {
	return ops.RenameResource(doc, o.ID, o.NewName)
}

type RenameResourceIDOp struct {
	OpName string `yaml:"op"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

func (o *RenameResourceIDOp) Name() string { return "rename.resource-id" }

func (o *RenameResourceIDOp) validate() error {
	if o.From == "" || o.To == "" {
		return fmt.Errorf("rename.resource-id requires from and to")
	}
	if o.From == o.To {
		return fmt.Errorf("old/new ids are identical (choose a different value for to)")
	}
	return nil
}

func (o *RenameResourceIDOp) Apply(doc *ilodoc.Document) error {
	return ops.RenameResourceID(doc, o.From, o.To)
}

type MoveResourceOp struct {
	OpName       string `yaml:"op"`
	ID           string `yaml:"id"`
	NewParent    string `yaml:"newParent"`
	InheritStyle bool   `yaml:"inheritStyleFromParent"`
}

func (o *MoveResourceOp) Name() string { return "move.resource" }

func (o *MoveResourceOp) validate() error {
	if o.ID == "" || o.NewParent == "" {
		return fmt.Errorf("move.resource requires id and newParent")
	}
	return nil
}

func (o *MoveResourceOp) Apply(doc *ilodoc.Document) error {
	return ops.MoveResourceStyled(doc, o.ID, o.NewParent, o.InheritStyle)
}

type GroupCreateOp struct {
	OpName    string `yaml:"op"`
	ID        string `yaml:"id"`
	GroupName string `yaml:"name"`
	Parent    string `yaml:"parent"`
	Subtitle  string `yaml:"subtitle"`
}

func (o *GroupCreateOp) Name() string { return "group.create" }

func (o *GroupCreateOp) validate() error {
	if o.ID == "" || o.GroupName == "" || o.Parent == "" {
		return fmt.Errorf("group.create requires id, name, and parent")
	}
	return nil
}

func (o *GroupCreateOp) Apply(doc *ilodoc.Document) error {
	return ops.CreateGroup(doc, ops.CreateGroupSpec{
		ID:       o.ID,
		Name:     o.GroupName,
		Subtitle: o.Subtitle,
		Parent:   o.Parent,
	})
}

type MoveManyOp struct {
	OpName    string   `yaml:"op"`
	IDs       []string `yaml:"ids"`
	NewParent string   `yaml:"newParent"`
}

func (o *MoveManyOp) Name() string { return "group.move-many" }

func (o *MoveManyOp) validate() error {
	if len(o.IDs) == 0 || o.NewParent == "" {
		return fmt.Errorf("group.move-many requires ids and newParent")
	}
	return nil
}

func (o *MoveManyOp) Apply(doc *ilodoc.Document) error {
	return ops.MoveMany(doc, o.IDs, o.NewParent)
}

type RelationAddOp struct {
	OpName         string `yaml:"op"`
	Perspective    string `yaml:"perspective"`
	relationFields `yaml:",inline"`
}

func (o *RelationAddOp) Name() string { return "relation.add" }

func (o *RelationAddOp) validate() error {
	if o.Perspective == "" {
		return fmt.Errorf("relation.add requires perspective")
	}
	return nil
}

func (o *RelationAddOp) Apply(doc *ilodoc.Document) error {
	return ops.AddRelation(doc, o.Perspective, o.payload())
}

type RelationAddManyOp struct {
	OpName         string     `yaml:"op"`
	Target         targetSpec `yaml:"target"`
	relationFields `yaml:",inline"`
}

func (o *RelationAddManyOp) Name() string { return "relation.add-many" }

func (o *RelationAddManyOp) validate() error {
	if o.From == nil && o.To == nil {
		return fmt.Errorf("relation must define from or to (set from and/or to)")
	}
	return nil
}

func (o *RelationAddManyOp) Apply(doc *ilodoc.Document) error {
	_, err := ops.AddRelationMany(doc, o.Target.target(), o.payload())
	return err
}

type RelationRemoveOp struct {
	OpName      string `yaml:"op"`
	Perspective string `yaml:"perspective"`
	Index       int    `yaml:"index"`
}

func (o *RelationRemoveOp) Name() string { return "relation.remove" }

func (o *RelationRemoveOp) validate() error {
	if o.Perspective == "" {
		return fmt.Errorf("relation.remove requires perspective")
	}
	if o.Index < 1 {
		return fmt.Errorf("index must be >= 1 (indices are 1-based)")
	}
	return nil
}

func (o *RelationRemoveOp) Apply(doc *ilodoc.Document) error {
	return ops.RemoveRelation(doc, o.Perspective, o.Index)
}

type RelationRemoveMatchOp struct {
	OpName       string         `yaml:"op"`
	Target       targetSpec     `yaml:"target"`
	Match        relationFields `yaml:"match"`
	RequireMatch bool           `yaml:"requireMatch"`
}

func (o *RelationRemoveMatchOp) Name() string { return "relation.remove-match" }

func (o *RelationRemoveMatchOp) validate() error {
	if len(o.Match.payload()) == 0 {
		return fmt.Errorf("match must define at least one field to compare")
	}
	return nil
}

func (o *RelationRemoveMatchOp) Apply(doc *ilodoc.Document) error {
	_, err := ops.RemoveRelationsMatch(doc, o.Target.target(), o.Match.payload(), o.RequireMatch)
	return err
}

type RelationEditOp struct {
	OpName         string `yaml:"op"`
	Perspective    string `yaml:"perspective"`
	Index          int    `yaml:"index"`
	relationFields `yaml:",inline"`
	ClearFrom      bool `yaml:"clearFrom"`
	ClearTo        bool `yaml:"clearTo"`
	ClearVia       bool `yaml:"clearVia"`
	ClearLabel     bool `yaml:"clearLabel"`
	ClearDesc      bool `yaml:"clearDescription"`
}

func (o *RelationEditOp) Name() string { return "relation.edit" }

func (o *RelationEditOp) validate() error {
	if o.Perspective == "" {
		return fmt.Errorf("relation.edit requires perspective")
	}
	if o.Index < 1 {
		return fmt.Errorf("index must be >= 1 (indices are 1-based)")
	}
	return nil
}

func (o *RelationEditOp) clears() []string {
	var clear []string
	for _, flag := range []struct {
		on    bool
		field string
	}{
		{o.ClearFrom, "from"},
		{o.ClearTo, "to"},
		{o.ClearVia, "via"},
		{o.ClearLabel, "label"},
		{o.ClearDesc, "description"},
	} {
		if flag.on {
			clear = append(clear, flag.field)
		}
	}
	return clear
}

func (o *RelationEditOp) Apply(doc *ilodoc.Document) error {
	return ops.EditRelation(doc, o.Perspective, o.Index, ops.RelationEdit{
		Set:   o.payload(),
		Clear: o.clears(),
	})
}

type RelationEditMatchOp struct {
	OpName       string         `yaml:"op"`
	Target       targetSpec     `yaml:"target"`
	Match        relationFields `yaml:"match"`
	Set          relationFields `yaml:"set"`
	Clear        []string       `yaml:"clear"`
	RequireMatch bool           `yaml:"requireMatch"`
}

func (o *RelationEditMatchOp) Name() string { return "relation.edit-match" }

func (o *RelationEditMatchOp) validate() error {
	if len(o.Match.payload()) == 0 {
		return fmt.Errorf("match must define at least one field to compare")
	}
	if len(o.Set.payload()) == 0 && len(o.Clear) == 0 {
		return fmt.Errorf("edit-match requires set or non-empty clear (provide fields to update or clear)")
	}
	return nil
}

func (o *RelationEditMatchOp) Apply(doc *ilodoc.Document) error {
	_, err := ops.EditRelationsMatch(doc, o.Target.target(), o.Match.payload(), ops.RelationEdit{
		Set:   o.Set.payload(),
		Clear: o.Clear,
	}, o.RequireMatch)
	return err
}

// FmtStableOp rewrites the file with no semantic change, normalizing
// formatting the emitter controls.
type FmtStableOp struct {
	OpName string `yaml:"op"`
}

func (o *FmtStableOp) Name() string { return "fmt.stable" }

func (o *FmtStableOp) Apply(doc *ilodoc.Document) error { return nil }
