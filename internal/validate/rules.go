package validate

import "ilo/internal/diag"

// Mode selects how rule findings are graded.
type Mode uint8

const (
	// ModeStrict escalates every rule to an error.
	ModeStrict Mode = iota
	// ModeNative mirrors the Ilograph renderer's own tolerance.
	ModeNative
)

func (m Mode) String() string {
	if m == ModeNative {
		return "native"
	}
	return "strict"
}

// ParseMode parses a --mode flag value.
func ParseMode(value string) (Mode, bool) {
	switch value {
	case "strict":
		return ModeStrict, true
	case "native", "ilograph-native":
		return ModeNative, true
	}
	return ModeStrict, false
}

// sevIgnore marks a rule that a mode drops entirely.
const sevIgnore = diag.Severity(255)

type ruleGrade struct {
	strict diag.Severity
	native diag.Severity
}

// severityTable is the explicit strict/native grading per rule. The
// native column mirrors what the Ilograph app itself tolerates: unknown
// import namespaces are ignored, cosmetic identifier rules become
// warnings, and everything that breaks rendering stays an error.
var severityTable = map[diag.Code]ruleGrade{
	diag.DocDuplicateResourceID:    {strict: diag.SevError, native: diag.SevError},
	diag.DocDuplicatePerspectiveID: {strict: diag.SevError, native: diag.SevError},
	diag.DocDuplicateContextName:   {strict: diag.SevError, native: diag.SevError},
	diag.DocRestrictedIDChar:       {strict: diag.SevError, native: diag.SevWarning},
	diag.DocNameNeedsID:            {strict: diag.SevError, native: diag.SevWarning},
	diag.DocRestrictedAliasChar:    {strict: diag.SevError, native: diag.SevWarning},
	diag.DocDuplicateOverride:      {strict: diag.SevError, native: diag.SevWarning},
	diag.RefBroken:                 {strict: diag.SevError, native: diag.SevError},
	diag.RefUnresolvedNamespace:    {strict: diag.SevError, native: sevIgnore},
	diag.RelMissingEndpoint:        {strict: diag.SevError, native: diag.SevError},
	diag.ExtendsCycle:              {strict: diag.SevError, native: diag.SevError},
	diag.ExtendsUnknown:            {strict: diag.SevError, native: diag.SevWarning},
}

// grade returns the severity of a rule under mode, and whether the finding
// should be reported at all.
func grade(code diag.Code, mode Mode) (diag.Severity, bool) {
	g, ok := severityTable[code]
	if !ok {
		return diag.SevError, true
	}
	sev := g.strict
	if mode == ModeNative {
		sev = g.native
	}
	if sev == sevIgnore {
		return 0, false
	}
	return sev, true
}
