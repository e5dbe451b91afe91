package diag

import (
	"fmt"
	"sort"
)

// Bag collects findings up to a fixed limit.
type Bag struct {
	items []Finding
	max   int
}

func NewBag(max int) *Bag {
	return &Bag{
		items: make([]Finding, 0, max),
		max:   max,
	}
}

// Add appends a finding, honouring the limit. Returns false when the bag
// is full and the finding was dropped.
func (b *Bag) Add(f Finding) bool {
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, f)
	return true
}

// HasErrors reports whether any finding has Severity >= Error.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any finding has Severity >= Warning.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns a read-only view of the findings.
// Do not modify the returned slice: it aliases the bag's storage.
func (b *Bag) Items() []Finding {
	return b.items
}

// Merge appends findings from another bag, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if newTotal := len(b.items) + len(other.items); newTotal > b.max {
		b.max = newTotal
	}
	b.items = append(b.items, other.items...)
}

// Sort orders findings by path, severity (desc), then code for stable,
// deterministic output.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		fi, fj := b.items[i], b.items[j]
		if fi.Path != fj.Path {
			return fi.Path < fj.Path
		}
		if fi.Severity != fj.Severity {
			return fi.Severity > fj.Severity
		}
		return fi.Code < fj.Code
	})
}

// Dedup removes findings sharing the same code and path.
func (b *Bag) Dedup() {
	seen := make(map[string]bool)
	items := make([]Finding, 0, len(b.items))
	for _, f := range b.items {
		key := fmt.Sprintf("%s:%s", f.Code.ID(), f.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, f)
	}
	b.items = items
}
