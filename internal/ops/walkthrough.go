package ops

import (
	"slices"

	"gopkg.in/yaml.v3"

	"ilo/internal/ilodoc"
	"ilo/internal/index"
)

var walkthroughSlideFields = map[string]bool{
	"text":      true,
	"select":    true,
	"expand":    true,
	"hide":      true,
	"focus":     true,
	"highlight": true,
	"include":   true,
	"exclude":   true,
	"root":      true,
	"center":    true,
	"zoomTo":    true,
}

var walkthroughSlideFieldOrder = []string{
	"text", "select", "expand", "hide", "focus", "highlight",
	"include", "exclude", "root", "center", "zoomTo",
}

// WalkthroughSlide holds the fields of one walkthrough slide.
type WalkthroughSlide map[string]string

func (s WalkthroughSlide) validate() error {
	if len(s) == 0 {
		return errSchema("walkthrough slide must define at least one field")
	}
	for key := range s {
		if !walkthroughSlideFields[key] {
			return errSchema("unknown walkthrough slide field: %s", key)
		}
	}
	return nil
}

// WalkthroughSlideInfo is one row of a walkthrough listing.
type WalkthroughSlideInfo struct {
	Index  int
	Text   string
	Select string
}

// ListWalkthrough returns a summary per slide of the perspective's
// walkthrough, 1-based.
func ListWalkthrough(doc *ilodoc.Document, perspectiveID string) ([]WalkthroughSlideInfo, error) {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return nil, err
	}
	slides := ilodoc.MapGet(perspective.Node, ilodoc.KeyWalkthrough)
	if !ilodoc.IsSeq(slides) {
		return nil, nil
	}
	var out []WalkthroughSlideInfo
	for i, slide := range slides.Content {
		if !ilodoc.IsMap(slide) {
			continue
		}
		out = append(out, WalkthroughSlideInfo{
			Index:  i + 1,
			Text:   ilodoc.StrValue(slide, "text"),
			Select: ilodoc.RawStrValue(slide, "select"),
		})
	}
	return out, nil
}

// AddWalkthroughSlide inserts a slide at the 1-based position, or
// appends when position is 0.
func AddWalkthroughSlide(doc *ilodoc.Document, perspectiveID string, slide WalkthroughSlide, position int) error {
	if err := slide.validate(); err != nil {
		return err
	}
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	slides := ilodoc.EnsureSeq(perspective.Node, ilodoc.KeyWalkthrough)
	node := buildSlideNode(slide)
	if position == 0 {
		slides.Content = append(slides.Content, node)
		return nil
	}
	if position < 1 || position > len(slides.Content)+1 {
		return errIndexRange("slide position out of range: %d (valid range: 1..%d)", position, len(slides.Content)+1)
	}
	ilodoc.SeqInsert(slides, position-1, node)
	return nil
}

// EditWalkthroughSlide updates the slide at the 1-based index.
func EditWalkthroughSlide(doc *ilodoc.Document, perspectiveID string, index1 int, set WalkthroughSlide, clear []string) error {
	for key := range set {
		if !walkthroughSlideFields[key] {
			return errSchema("unknown walkthrough slide field: %s", key)
		}
	}
	for _, field := range clear {
		if !walkthroughSlideFields[field] {
			return errSchema("invalid clear field: %s", field)
		}
		if _, ok := set[field]; ok {
			return errSchema("field %s cannot be both set and cleared in one call", field)
		}
	}
	if len(set) == 0 && len(clear) == 0 {
		return errSchema("edit requires set fields or non-empty clear")
	}
	slide, err := walkthroughSlideAt(doc, perspectiveID, index1)
	if err != nil {
		return err
	}
	if len(set) == 0 {
		kept := false
		for i := 0; i+1 < len(slide.Content); i += 2 {
			if !slices.Contains(clear, slide.Content[i].Value) {
				kept = true
			}
		}
		if !kept {
			return errSchema("walkthrough slide must keep at least one field (remove the slide instead)")
		}
	}
	for _, field := range clear {
		ilodoc.MapDelete(slide, field)
	}
	for _, key := range walkthroughSlideFieldOrder {
		if value, ok := set[key]; ok {
			ilodoc.MapSet(slide, key, ilodoc.Str(value))
		}
	}
	return nil
}

// RemoveWalkthroughSlide removes the slide at the 1-based index. The
// walkthrough is dropped when it empties.
func RemoveWalkthroughSlide(doc *ilodoc.Document, perspectiveID string, index1 int) error {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return err
	}
	slides := ilodoc.MapGet(perspective.Node, ilodoc.KeyWalkthrough)
	if !ilodoc.IsSeq(slides) {
		return errNotFound("perspective %s has no walkthrough", perspective.Identifier)
	}
	if index1 < 1 || index1 > len(slides.Content) {
		return errIndexRange("slide index out of range: %d (valid range: 1..%d)", index1, len(slides.Content))
	}
	ilodoc.SeqRemove(slides, index1-1)
	if len(slides.Content) == 0 {
		ilodoc.MapDelete(perspective.Node, ilodoc.KeyWalkthrough)
	}
	return nil
}

func walkthroughSlideAt(doc *ilodoc.Document, perspectiveID string, index1 int) (*yaml.Node, error) {
	perspective, err := index.Perspective(doc, perspectiveID)
	if err != nil {
		return nil, err
	}
	slides := ilodoc.MapGet(perspective.Node, ilodoc.KeyWalkthrough)
	if !ilodoc.IsSeq(slides) {
		return nil, errNotFound("perspective %s has no walkthrough", perspective.Identifier)
	}
	if index1 < 1 || index1 > len(slides.Content) {
		return nil, errIndexRange("slide index out of range: %d (valid range: 1..%d)", index1, len(slides.Content))
	}
	slide := slides.Content[index1-1]
	if !ilodoc.IsMap(slide) {
		return nil, errSchema("walkthrough slide at index %d is not a mapping/object", index1)
	}
	return slide, nil
}

func buildSlideNode(slide WalkthroughSlide) *yaml.Node {
	node := ilodoc.Map()
	for _, key := range walkthroughSlideFieldOrder {
		if value, ok := slide[key]; ok {
			ilodoc.MapSet(node, key, ilodoc.Str(value))
		}
	}
	return node
}
