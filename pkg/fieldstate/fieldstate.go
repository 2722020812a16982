// Package fieldstate derives per-field display state from dependency
// expressions: the compiler turns a doctype's field list into a
// dependency-state map, and the resolver folds that map with permissions
// into the three-valued status the rendering layer consumes.
package fieldstate

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-docfield/pkg/coerce"
	"github.com/goliatone/go-docfield/pkg/depends"
	"github.com/goliatone/go-docfield/pkg/model"
)

// State is one field's derived dependency state. Each slot is only set when
// the field declares the corresponding expression; absence means "use the
// static metadata default."
type State struct {
	HiddenDueToDependency *bool `json:"hidden_due_to_dependency,omitempty"`
	Reqd                  *int  `json:"reqd,omitempty"`
	ReadOnly              *int  `json:"read_only,omitempty"`
}

// Compile evaluates every field's dependency expressions against ctx and
// returns the dependency-state map. It is a pure function of its inputs:
// no caching, identical inputs yield identical maps.
//
// A field whose expression fails contributes no entry, so its static
// defaults win, erring toward visibility; the failure is reported in the
// joined error so metadata defects stay loud.
func Compile(fields []model.DocField, ctx depends.Context) (map[string]State, error) {
	states := make(map[string]State, len(fields))
	var failures []error

	for _, field := range fields {
		if !field.HasDependsOn() {
			continue
		}
		state, err := compileField(field, ctx)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		states[field.Fieldname] = state
	}
	return states, errors.Join(failures...)
}

func compileField(field model.DocField, ctx depends.Context) (State, error) {
	var state State

	if field.DependsOn != nil {
		value, err := depends.Evaluate(field.DependsOn, ctx)
		if err != nil {
			return State{}, fmt.Errorf("fieldstate: field %q depends_on: %w", field.Fieldname, err)
		}
		// A truthy guard means the field should be shown.
		hidden := !coerce.Truthy(value)
		state.HiddenDueToDependency = &hidden
	}
	if field.MandatoryDependsOn != nil {
		value, err := depends.Evaluate(field.MandatoryDependsOn, ctx)
		if err != nil {
			return State{}, fmt.Errorf("fieldstate: field %q mandatory_depends_on: %w", field.Fieldname, err)
		}
		reqd := flag(value)
		state.Reqd = &reqd
	}
	if field.ReadOnlyDependsOn != nil {
		value, err := depends.Evaluate(field.ReadOnlyDependsOn, ctx)
		if err != nil {
			return State{}, fmt.Errorf("fieldstate: field %q read_only_depends_on: %w", field.Fieldname, err)
		}
		readOnly := flag(value)
		state.ReadOnly = &readOnly
	}
	return state, nil
}

func flag(value any) int {
	if coerce.Truthy(value) {
		return 1
	}
	return 0
}
