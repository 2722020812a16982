package fieldstate

import (
	"github.com/goliatone/go-docfield/pkg/model"
	"github.com/goliatone/go-docfield/pkg/perm"
)

// Status is the three-valued display outcome for one field.
type Status int

const (
	// StatusNone means the field is not rendered at all.
	StatusNone Status = iota
	// StatusRead means the field is rendered but disabled.
	StatusRead
	// StatusWrite means the field is rendered and editable.
	StatusWrite
)

func (s Status) String() string {
	switch s {
	case StatusRead:
		return "Read"
	case StatusWrite:
		return "Write"
	default:
		return "None"
	}
}

// Resolve folds one field's dependency state with the session's per-tier
// permissions and any document-level ACL override. Precedence, highest
// first: hidden (dependency, unreadable tier, or ACL) → None; read-only
// (dependency, static metadata, ACL, or unwritable tier) → Read; else
// Write. Never cache the result across renders; document state can change
// every keystroke.
func Resolve(field model.DocField, state *State, tiers perm.Tiers, override *perm.ACLOverride) Status {
	if state != nil && state.HiddenDueToDependency != nil && *state.HiddenDueToDependency {
		return StatusNone
	}
	if !tiers.CanRead(field.Permlevel) {
		return StatusNone
	}
	if override.Hides(field.Fieldname) {
		return StatusNone
	}

	if state != nil && state.ReadOnly != nil && *state.ReadOnly == 1 {
		return StatusRead
	}
	if field.ReadOnly {
		return StatusRead
	}
	if override.ForcesReadOnly(field.Fieldname) {
		return StatusRead
	}
	if !tiers.CanWrite(field.Permlevel) {
		return StatusRead
	}
	return StatusWrite
}
