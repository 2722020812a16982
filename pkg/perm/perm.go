// Package perm folds role-based permission rules into per-tier read/write
// grants and models document-level ACL overrides. Fields are stratified by
// permlevel; a grant at tier 0 says nothing about tier 1.
package perm

import "github.com/goliatone/go-docfield/pkg/model"

// Access is the read/write capability of a role set at one permission tier.
type Access struct {
	Read  bool
	Write bool
}

// Tiers maps permlevel to the folded access of the session's role set.
type Tiers map[int]Access

// FromDocType folds a doctype's permission rules over a role set: a tier
// grants read (or write) when any held role's rule at that tier does.
func FromDocType(dt *model.DocType, roles []string) Tiers {
	tiers := make(Tiers)
	if dt == nil {
		return tiers
	}
	held := make(map[string]bool, len(roles))
	for _, role := range roles {
		held[role] = true
	}
	for _, rule := range dt.Permissions {
		if !held[rule.Role] {
			continue
		}
		access := tiers[rule.Permlevel]
		access.Read = access.Read || rule.Read
		access.Write = access.Write || rule.Write
		tiers[rule.Permlevel] = access
	}
	return tiers
}

// CanRead reports read access at a tier.
func (t Tiers) CanRead(permlevel int) bool {
	return t[permlevel].Read
}

// CanWrite reports write access at a tier.
func (t Tiers) CanWrite(permlevel int) bool {
	return t[permlevel].Write
}

// ACLOverride is a document-level field override: specific fields forced
// hidden or read-only for this document regardless of dependency state.
type ACLOverride struct {
	HiddenFields   []string
	ReadOnlyFields []string
}

// Hides reports whether the override hides the named field.
func (o *ACLOverride) Hides(fieldname string) bool {
	if o == nil {
		return false
	}
	return contains(o.HiddenFields, fieldname)
}

// ForcesReadOnly reports whether the override forces the named field
// read-only.
func (o *ACLOverride) ForcesReadOnly(fieldname string) bool {
	if o == nil {
		return false
	}
	return contains(o.ReadOnlyFields, fieldname)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
