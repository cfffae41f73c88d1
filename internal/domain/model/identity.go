package model

import "strings"

// Identity is the verified caller resolved by the auth collaborator.
// Both fields may be nil for anonymous callers.
type Identity struct {
	UserID *string
	Email  *string
}

// Anonymous reports whether neither identity field is known.
func (i Identity) Anonymous() bool {
	return i.UserID == nil && i.Email == nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StringPtr returns nil for blank strings, a pointer to the trimmed value otherwise.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
