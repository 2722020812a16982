// Package engine wires the runtime store, dependency-state compiler, and
// field-status resolver into a single entry point for form-rendering
// callers.
package engine

import (
	"github.com/goliatone/go-docfield/pkg/dateutil"
	"github.com/goliatone/go-docfield/pkg/depends"
	"github.com/goliatone/go-docfield/pkg/fieldstate"
	"github.com/goliatone/go-docfield/pkg/metaload"
	"github.com/goliatone/go-docfield/pkg/model"
	"github.com/goliatone/go-docfield/pkg/perm"
	"github.com/goliatone/go-docfield/pkg/runtime"
)

// Option customises the engine configuration.
type Option func(*Engine)

// WithStore injects the session runtime store.
func WithStore(store *runtime.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// WithMetadata injects a loaded doctype metadata store.
func WithMetadata(meta *metaload.Store) Option {
	return func(e *Engine) {
		e.meta = meta
	}
}

// WithHelpers registers domain helper functions exposed to `eval:`
// expressions.
func WithHelpers(helpers map[string]any) Option {
	return func(e *Engine) {
		e.helpers = helpers
	}
}

// WithClock overrides the date-helper time source.
func WithClock(clock *dateutil.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// Engine is the consumer-facing facade. Construct one per session.
type Engine struct {
	store   *runtime.Store
	meta    *metaload.Store
	helpers map[string]any
	clock   *dateutil.Clock
}

// New constructs an engine; without options it owns a fresh empty store.
func New(options ...Option) *Engine {
	e := &Engine{store: runtime.NewStore()}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Store exposes the session runtime store.
func (e *Engine) Store() *runtime.Store { return e.store }

// Metadata exposes the loaded doctype store, if any.
func (e *Engine) Metadata() *metaload.Store { return e.meta }

// Request carries the inputs for one field-status computation.
type Request struct {
	Field  model.DocField
	Doc    model.Document
	Parent model.Document

	// DocType supplies permission rules; resolved from loaded metadata via
	// the document's doctype when nil.
	DocType *model.DocType

	// States is an externally pre-computed dependency-state map; when nil
	// the field's own expressions are evaluated.
	States map[string]fieldstate.State

	// Override is the document-level ACL override, if any.
	Override *perm.ACLOverride
}

// FieldStatus computes one field's display status synchronously. An
// expression failure degrades the field to its static defaults (erring
// toward visibility) and is returned alongside so the caller can surface
// the metadata defect.
func (e *Engine) FieldStatus(req Request) (fieldstate.Status, error) {
	dt := e.doctypeFor(req)
	tiers := e.tiersFor(dt, req.Field)

	var state *fieldstate.State
	var compileErr error
	if req.States != nil {
		if s, ok := req.States[req.Field.Fieldname]; ok {
			state = &s
		}
	} else if req.Field.HasDependsOn() {
		states, err := fieldstate.Compile([]model.DocField{req.Field}, e.dependsContext(req.Doc, req.Parent))
		if err != nil {
			compileErr = err
		} else if s, ok := states[req.Field.Fieldname]; ok {
			state = &s
		}
	}

	return fieldstate.Resolve(req.Field, state, tiers, req.Override), compileErr
}

// CompileStates produces the dependency-state map for a whole doctype in
// one pass.
func (e *Engine) CompileStates(dt *model.DocType, doc, parent model.Document) (map[string]fieldstate.State, error) {
	if dt == nil {
		return map[string]fieldstate.State{}, nil
	}
	return fieldstate.Compile(dt.Fields, e.dependsContext(doc, parent))
}

// Statuses resolves every field of a doctype against one document. Failed
// expressions degrade those fields to static defaults; the joined error
// reports them.
func (e *Engine) Statuses(dt *model.DocType, doc, parent model.Document, override *perm.ACLOverride) (map[string]fieldstate.Status, error) {
	if dt == nil {
		return map[string]fieldstate.Status{}, nil
	}
	states, err := e.CompileStates(dt, doc, parent)
	tiers := e.tiersFor(dt, model.DocField{})

	statuses := make(map[string]fieldstate.Status, len(dt.Fields))
	for _, field := range dt.Fields {
		var state *fieldstate.State
		if s, ok := states[field.Fieldname]; ok {
			state = &s
		}
		statuses[field.Fieldname] = fieldstate.Resolve(field, state, tiers, override)
	}
	return statuses, err
}

func (e *Engine) dependsContext(doc, parent model.Document) depends.Context {
	return depends.Context{
		Doc:     doc,
		Parent:  parent,
		Store:   e.store,
		Clock:   e.clock,
		Helpers: e.helpers,
	}
}

func (e *Engine) doctypeFor(req Request) *model.DocType {
	if req.DocType != nil {
		return req.DocType
	}
	if e.meta == nil || req.Doc == nil {
		return nil
	}
	dt, _ := e.meta.DocType(req.Doc.Doctype())
	return dt
}

// tiersFor folds the doctype permissions over the boot role set. A doctype
// without permission rules (or no doctype at all) grants full access at the
// tiers its fields use: this engine is a display guard, the backend enforces
// the real ACL.
func (e *Engine) tiersFor(dt *model.DocType, field model.DocField) perm.Tiers {
	if dt != nil && len(dt.Permissions) > 0 {
		boot, _ := e.store.Boot()
		return perm.FromDocType(dt, boot.Roles)
	}

	tiers := perm.Tiers{field.Permlevel: {Read: true, Write: true}}
	if dt != nil {
		for _, f := range dt.Fields {
			tiers[f.Permlevel] = perm.Access{Read: true, Write: true}
		}
	}
	return tiers
}
