package ops

import (
	"slices"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

// sequenceStepDirections are the mutually exclusive step target keys.
var sequenceStepDirections = []string{"to", "toAndBack", "toAsync", "restartAt"}

var sequenceStepFields = map[string]bool{
	"to":          true,
	"toAndBack":   true,
	"toAsync":     true,
	"restartAt":   true,
	"label":       true,
	"description": true,
	"color":       true,
}

var sequenceStepFieldOrder = []string{
	"to", "toAndBack", "toAsync", "restartAt", "label", "description", "color",
}

// SequenceStep holds the fields of one sequence step. Exactly one of
// the direction keys must be set.
type SequenceStep map[string]string

func (s SequenceStep) validate() error {
	for key := range s {
		if !sequenceStepFields[key] {
			return errSchema("unknown sequence step field: %s", key)
		}
	}
	directions := 0
	for _, key := range sequenceStepDirections {
		if _, ok := s[key]; ok {
			directions++
		}
	}
	if directions != 1 {
		return errSchema("sequence step requires exactly one of to, toAndBack, toAsync, restartAt")
	}
	return nil
}

// SetSequenceStart sets (or creates) the sequence of a perspective and
// its start reference.
func SetSequenceStart(doc *ilodoc.Document, perspectiveID, start string) error {
	if start == "" {
		return errSchema("sequence start must not be empty")
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	sequence := ilodoc.EnsureMap(perspective.Node, ilodoc.KeySequence)
	ilodoc.MapSet(sequence, "start", ilodoc.Str(start))
	return nil
}

// AddSequenceStep inserts a step at the 1-based position, or appends
// when position is 0.
func AddSequenceStep(doc *ilodoc.Document, perspectiveID string, step SequenceStep, position int) error {
	if err := step.validate(); err != nil {
		return err
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	sequence := ilodoc.MapGet(perspective.Node, ilodoc.KeySequence)
	if !ilodoc.IsMap(sequence) {
		return errNotFound("perspective %s has no sequence (set a start first)", perspective.Identifier)
	}
	steps := ilodoc.EnsureSeq(sequence, ilodoc.KeySteps)
	node := buildStepNode(step)
	if position == 0 {
		steps.Content = append(steps.Content, node)
		return nil
	}
	if position < 1 || position > len(steps.Content)+1 {
		return errIndexRange("step position out of range: %d (valid range: 1..%d)", position, len(steps.Content)+1)
	}
	ilodoc.SeqInsert(steps, position-1, node)
	return nil
}

// EditSequenceStep replaces fields of the step at the 1-based index.
// Setting a direction key clears the step's previous direction key.
func EditSequenceStep(doc *ilodoc.Document, perspectiveID string, index1 int, set SequenceStep, clear []string) error {
	for key := range set {
		if !sequenceStepFields[key] {
			return errSchema("unknown sequence step field: %s", key)
		}
	}
	for _, field := range clear {
		if !sequenceStepFields[field] {
			return errSchema("invalid clear field: %s", field)
		}
		if _, ok := set[field]; ok {
			return errSchema("field %s cannot be both set and cleared in one call", field)
		}
	}
	step, err := sequenceStepAt(doc, perspectiveID, index1)
	if err != nil {
		return err
	}
	newDirection := ""
	for _, key := range sequenceStepDirections {
		if _, ok := set[key]; ok {
			if newDirection != "" {
				return errSchema("sequence step requires exactly one of to, toAndBack, toAsync, restartAt")
			}
			newDirection = key
		}
	}
	if newDirection == "" {
		kept := false
		for _, key := range sequenceStepDirections {
			if ilodoc.MapHas(step, key) && !slices.Contains(clear, key) {
				kept = true
			}
		}
		if !kept {
			return errSchema("sequence step must keep one of to, toAndBack, toAsync, restartAt")
		}
	}
	if newDirection != "" {
		for _, key := range sequenceStepDirections {
			if key != newDirection {
				ilodoc.MapDelete(step, key)
			}
		}
	}
	for _, field := range clear {
		ilodoc.MapDelete(step, field)
	}
	for _, key := range sequenceStepFieldOrder {
		if value, ok := set[key]; ok {
			ilodoc.MapSet(step, key, ilodoc.Str(value))
		}
	}
	return nil
}

// RemoveSequenceStep removes the step at the 1-based index. The steps
// list is dropped when it empties.
func RemoveSequenceStep(doc *ilodoc.Document, perspectiveID string, index1 int) error {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	sequence := ilodoc.MapGet(perspective.Node, ilodoc.KeySequence)
	steps := ilodoc.MapGet(sequence, ilodoc.KeySteps)
	if !ilodoc.IsSeq(steps) {
		return errNotFound("perspective %s has no sequence steps", perspective.Identifier)
	}
	if index1 < 1 || index1 > len(steps.Content) {
		return errIndexRange("step index out of range: %d (valid range: 1..%d)", index1, len(steps.Content))
	}
	ilodoc.SeqRemove(steps, index1-1)
	if len(steps.Content) == 0 {
		ilodoc.MapDelete(sequence, ilodoc.KeySteps)
	}
	return nil
}

// ClearSequence removes the whole sequence block from the perspective.
func ClearSequence(doc *ilodoc.Document, perspectiveID string) error {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	if !ilodoc.MapDelete(perspective.Node, ilodoc.KeySequence) {
		return errNotFound("perspective %s has no sequence", perspective.Identifier)
	}
	return nil
}

func sequenceStepAt(doc *ilodoc.Document, perspectiveID string, index1 int) (*yaml.Node, error) {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return nil, err
	}
	sequence := ilodoc.MapGet(perspective.Node, ilodoc.KeySequence)
	steps := ilodoc.MapGet(sequence, ilodoc.KeySteps)
	if !ilodoc.IsSeq(steps) {
		return nil, errNotFound("perspective %s has no sequence steps", perspective.Identifier)
	}
	if index1 < 1 || index1 > len(steps.Content) {
		return nil, errIndexRange("step index out of range: %d (valid range: 1..%d)", index1, len(steps.Content))
	}
	step := steps.Content[index1-1]
	if !ilodoc.IsMap(step) {
		return nil, errSchema("sequence step at index %d is not a mapping/object", index1)
	}
	return step, nil
}

func buildStepNode(step SequenceStep) *yaml.Node {
	node := ilodoc.Map()
	for _, key := range sequenceStepFieldOrder {
		if value, ok := step[key]; ok {
			ilodoc.MapSet(node, key, ilodoc.Str(value))
		}
	}
	return node
}
