// Package docfield computes per-field display state for metadata-driven
// document forms: dependency expressions embedded in doctype metadata are
// evaluated against live document values and folded with role permissions
// into a three-valued status (None, Read, Write). The root package
// re-exports the common surface; the pkg tree holds the pieces.
package docfield

import (
	"github.com/goliatone/go-docfield/pkg/engine"
	"github.com/goliatone/go-docfield/pkg/fieldstate"
	"github.com/goliatone/go-docfield/pkg/model"
	"github.com/goliatone/go-docfield/pkg/perm"
	"github.com/goliatone/go-docfield/pkg/runtime"
)

// Document is the loosely-typed field→value mapping forms edit.
type Document = model.Document

// DocType is a document-type schema: fields plus permission rules.
type DocType = model.DocType

// DocField is one field's static metadata, dependency expressions included.
type DocField = model.DocField

// Boot is the session-wide configuration established at login.
type Boot = runtime.Boot

// Store is the session runtime state: boot context plus document cache.
type Store = runtime.Store

// NewStore constructs a session store.
func NewStore(options ...runtime.Option) *Store {
	return runtime.NewStore(options...)
}

// State is one field's derived dependency state.
type State = fieldstate.State

// Status is the three-valued display outcome for one field.
type Status = fieldstate.Status

const (
	StatusNone  = fieldstate.StatusNone
	StatusRead  = fieldstate.StatusRead
	StatusWrite = fieldstate.StatusWrite
)

// ACLOverride is a document-level field override.
type ACLOverride = perm.ACLOverride

// Engine is the consumer-facing facade; construct one per session.
type Engine = engine.Engine

// Request carries the inputs for one field-status computation.
type Request = engine.Request

// New constructs an Engine.
func New(options ...engine.Option) *Engine {
	return engine.New(options...)
}
