package domain

import (
	"fmt"
	"strings"
)

// AccessType enumerates the kinds of access a policy can authorize.
// The set is closed; it is never extended at runtime.
type AccessType string

const (
	AccessCreate      AccessType = "CREATE"
	AccessDrop        AccessType = "DROP"
	AccessSelect      AccessType = "SELECT"
	AccessInsert      AccessType = "INSERT"
	AccessDelete      AccessType = "DELETE"
	AccessUse         AccessType = "USE"
	AccessAlter       AccessType = "ALTER"
	AccessAll         AccessType = "ALL"
	AccessGrant       AccessType = "GRANT"
	AccessRevoke      AccessType = "REVOKE"
	AccessShow        AccessType = "SHOW"
	AccessImpersonate AccessType = "IMPERSONATE"
	AccessExecute     AccessType = "EXECUTE"
)

// AccessTypes lists every member of the enumeration.
var AccessTypes = []AccessType{
	AccessCreate, AccessDrop, AccessSelect, AccessInsert, AccessDelete,
	AccessUse, AccessAlter, AccessAll, AccessGrant, AccessRevoke,
	AccessShow, AccessImpersonate, AccessExecute,
}

// Wire returns the lower-cased form sent to the policy evaluator.
func (a AccessType) Wire() string { return strings.ToLower(string(a)) }

// ParseAccessType converts a case-insensitive name into an AccessType.
func ParseAccessType(s string) (AccessType, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, a := range AccessTypes {
		if string(a) == want {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown access type %q", s)
}
