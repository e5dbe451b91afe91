package diag

import "fmt"

// Code identifies a validation rule or error class.
type Code uint16

const (
	UnknownCode Code = 0

	// Structural document rules
	DocDuplicateResourceID    Code = 1001
	DocDuplicatePerspectiveID Code = 1002
	DocDuplicateContextName   Code = 1003
	DocRestrictedIDChar       Code = 1004
	DocNameNeedsID            Code = 1005
	DocRestrictedAliasChar    Code = 1006
	DocDuplicateOverride      Code = 1007

	// Reference rules
	RefBroken              Code = 2001
	RefUnresolvedNamespace Code = 2002
	RefAmbiguous           Code = 2003

	// Well-formedness rules
	RelMissingEndpoint Code = 3001
	ExtendsCycle       Code = 3002
	ExtendsUnknown     Code = 3003

	// Operation error classes
	OpNotFound      Code = 4001
	OpNotUnique     Code = 4002
	OpAlreadyExists Code = 4003
	OpInvalidRef    Code = 4004
	OpIndexRange    Code = 4005
	OpNoMatch       Code = 4006
	OpTemplate      Code = 4007
	OpSchema        Code = 4008
)

var codeIDs = map[Code]string{
	UnknownCode:               "unknown",
	DocDuplicateResourceID:    "duplicate-resource-id",
	DocDuplicatePerspectiveID: "duplicate-perspective-id",
	DocDuplicateContextName:   "duplicate-context-name",
	DocRestrictedIDChar:       "restricted-resource-id-char",
	DocNameNeedsID:            "name-needs-id",
	DocRestrictedAliasChar:    "restricted-alias-char",
	DocDuplicateOverride:      "duplicate-override",
	RefBroken:                 "broken-reference",
	RefUnresolvedNamespace:    "unresolved-namespace",
	RefAmbiguous:              "ambiguous-reference",
	RelMissingEndpoint:        "relation-missing-endpoint",
	ExtendsCycle:              "extends-cycle",
	ExtendsUnknown:            "extends-unknown",
	OpNotFound:                "not-found",
	OpNotUnique:               "not-unique",
	OpAlreadyExists:           "already-exists",
	OpInvalidRef:              "invalid-reference",
	OpIndexRange:              "index-out-of-range",
	OpNoMatch:                 "no-match",
	OpTemplate:                "template-error",
	OpSchema:                  "schema-error",
}

// ID returns the stable string identifier for the code.
func (c Code) ID() string {
	if id, ok := codeIDs[c]; ok {
		return id
	}
	return fmt.Sprintf("code-%04d", uint16(c))
}

func (c Code) String() string {
	return fmt.Sprintf("ILO%04d", uint16(c))
}
