// Package depends evaluates one dependency expression, in any of its four
// forms, against the current document and session runtime, producing the
// effective value the dependency-state compiler consumes.
package depends

import (
	"strings"

	"github.com/goliatone/go-docfield/pkg/coerce"
	"github.com/goliatone/go-docfield/pkg/dateutil"
	"github.com/goliatone/go-docfield/pkg/evalexpr"
	"github.com/goliatone/go-docfield/pkg/model"
	"github.com/goliatone/go-docfield/pkg/runtime"
)

// Expression form prefixes.
const (
	EvalPrefix = "eval:"
	FnPrefix   = "fn:"
)

// Context is the evaluation context for one dependency expression.
type Context struct {
	// Doc is the document the field belongs to. For a child-table row this
	// is the row itself.
	Doc model.Document

	// Parent is the top-level document; leave nil when Doc is already the
	// top-level document.
	Parent model.Document

	// GetValue supplies a document snapshot when Doc is absent; it is called
	// with forValidation semantics, matching save-pipeline callers.
	GetValue func(forValidation bool) model.Document

	// Store supplies boot data and the referenced-document cache to `eval:`
	// expressions. Optional; without it `getdoc` resolves to nothing.
	Store *runtime.Store

	// Clock overrides the date helper time source. Defaults to a clock in
	// the boot time zone.
	Clock *dateutil.Clock

	// Helpers are caller-registered domain helpers merged into the `eval:`
	// scope, e.g. an accounting-mode probe over a cached settings document.
	Helpers map[string]any
}

// Evaluate resolves one dependency expression. expression may be a bool, a
// model.DependsFunc, or a string in `eval:`, `fn:`, or plain-field-name
// form. A nil result means "unknown" and is treated as false everywhere it
// is consumed.
func Evaluate(expression any, ctx Context) (any, error) {
	doc := ctx.Doc
	if doc == nil && ctx.GetValue != nil {
		doc = ctx.GetValue(true)
	}
	if doc == nil {
		return nil, nil
	}

	switch expr := expression.(type) {
	case nil:
		return nil, nil
	case bool:
		return expr, nil
	case model.DependsFunc:
		return expr(doc), nil
	case func(model.Document) any:
		return expr(doc), nil
	case string:
		return evaluateString(strings.TrimSpace(expr), doc, ctx)
	default:
		return coerce.Truthy(expression), nil
	}
}

func evaluateString(expr string, doc model.Document, ctx Context) (any, error) {
	switch {
	case strings.HasPrefix(expr, EvalPrefix):
		code := strings.TrimPrefix(expr, EvalPrefix)
		result, err := evalexpr.Eval(code, Scope(doc, ctx))
		if err != nil {
			return nil, &InvalidExpressionError{Expression: expr, Err: err}
		}
		// Compatibility quirk kept for parity with the reference: a
		// submittable-aware guard is always satisfied when the resolved
		// parent is itself a child-table row.
		if parentOf(doc, ctx).IsChildRow() && strings.Contains(expr, "is_submittable") {
			return true, nil
		}
		return result, nil
	case strings.HasPrefix(expr, FnPrefix):
		return nil, &UnsupportedExpressionError{Rule: strings.TrimPrefix(expr, FnPrefix)}
	default:
		value := doc.Get(expr)
		if seq, ok := sequence(value); ok {
			return len(seq) > 0, nil
		}
		return coerce.Truthy(value), nil
	}
}

// Scope assembles the enumerated variable namespace for `eval:` code: the
// documents, the coercion and date helpers, the document-cache proxy, boot
// data under `sys`, and any caller-registered helpers.
func Scope(doc model.Document, ctx Context) evalexpr.Scope {
	scope := evalexpr.Scope{
		"doc":    doc,
		"parent": parentOf(doc, ctx),
		"cint": evalexpr.Func(func(args ...any) (any, error) {
			return float64(coerce.Cint(first(args))), nil
		}),
		"flt": evalexpr.Func(func(args ...any) (any, error) {
			return coerce.Flt(first(args)), nil
		}),
		"cstr": evalexpr.Func(func(args ...any) (any, error) {
			return coerce.Cstr(first(args)), nil
		}),
		"cbool": evalexpr.Func(func(args ...any) (any, error) {
			return coerce.Truthy(first(args)), nil
		}),
		"in_list": evalexpr.Func(func(args ...any) (any, error) {
			if len(args) < 2 {
				return false, nil
			}
			return coerce.InList(args[0], args[1]), nil
		}),
		"getdoc": evalexpr.Func(func(args ...any) (any, error) {
			return getdoc(ctx.Store, args), nil
		}),
	}

	var boot runtime.Boot
	if ctx.Store != nil {
		boot, _ = ctx.Store.Boot()
	}
	scope["sys"] = map[string]any{
		"user":  boot.User,
		"roles": boot.Roles,
		"defaults": map[string]any{
			"time_zone":     boot.Defaults.TimeZone,
			"number_format": boot.Defaults.NumberFormat,
		},
	}

	clock := ctx.Clock
	if clock == nil {
		clock = dateutil.New(boot.Defaults.TimeZone)
	}
	scope["date"] = map[string]any{
		"now": evalexpr.Func(func(...any) (any, error) {
			return clock.NowDatetime(), nil
		}),
		"nowdate": evalexpr.Func(func(...any) (any, error) {
			return clock.Nowdate(), nil
		}),
		"today": evalexpr.Func(func(...any) (any, error) {
			return clock.Today(), nil
		}),
	}

	for name, helper := range ctx.Helpers {
		scope[name] = helper
	}
	return scope
}

// getdoc is the read-only proxy onto the document cache. A miss resolves to
// nothing for the current pass and schedules a background fill; the store's
// change notification drives the recomputation that will observe it.
func getdoc(store *runtime.Store, args []any) any {
	if store == nil || len(args) < 2 {
		return nil
	}
	doctype := coerce.Cstr(args[0])
	name := coerce.Cstr(args[1])
	if doc, ok := store.GetDoc(doctype, name); ok {
		return doc
	}
	store.Prefetch(doctype, name)
	return nil
}

func parentOf(doc model.Document, ctx Context) model.Document {
	if ctx.Parent != nil {
		return ctx.Parent
	}
	return doc
}

func sequence(value any) ([]any, bool) {
	switch seq := value.(type) {
	case []any:
		return seq, true
	case []model.Document:
		out := make([]any, len(seq))
		for i, d := range seq {
			out[i] = d
		}
		return out, true
	case []string:
		out := make([]any, len(seq))
		for i, s := range seq {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func first(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
