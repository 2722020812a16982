// Package openapi derives document-type metadata from an OpenAPI 3
// document. Backends that already publish their schemas as OpenAPI
// components can annotate properties with the x-depends-on extension family
// instead of shipping a separate metadata tree. kin-openapi stays behind
// this package boundary.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-docfield/pkg/model"
)

// Schema extension keys understood by the adapter.
const (
	ExtDependsOn          = "x-depends-on"
	ExtMandatoryDependsOn = "x-mandatory-depends-on"
	ExtReadOnlyDependsOn  = "x-read-only-depends-on"
	ExtPermlevel          = "x-permlevel"
	ExtIsTable            = "x-istable"
	ExtIsSingle           = "x-issingle"
)

// Option customises the adapter.
type Option func(*Adapter)

// WithValidation runs full document validation before conversion. Off by
// default so partially-authored specs still convert.
func WithValidation() Option {
	return func(a *Adapter) {
		a.validate = true
	}
}

// Adapter converts OpenAPI component schemas into model.DocType values.
type Adapter struct {
	validate bool
}

// New constructs an Adapter.
func New(options ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// DocTypes loads raw OpenAPI payload and converts every object component
// schema into a doctype keyed by component name.
func (a *Adapter) DocTypes(ctx context.Context, raw []byte) (map[string]*model.DocType, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if a.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document has no component schemas")
	}

	doctypes := make(map[string]*model.DocType, len(spec.Components.Schemas))
	for name, ref := range spec.Components.Schemas {
		if ref == nil || ref.Value == nil {
			continue
		}
		if !isObjectSchema(ref.Value) {
			continue
		}
		dt, err := convertDocType(name, ref.Value)
		if err != nil {
			return nil, err
		}
		doctypes[name] = dt
	}
	if len(doctypes) == 0 {
		return nil, errors.New("openapi: no object schemas to convert")
	}
	return doctypes, nil
}

func convertDocType(name string, schema *openapi3.Schema) (*model.DocType, error) {
	dt := &model.DocType{
		Name:     name,
		IsTable:  boolExtension(schema.Extensions, ExtIsTable),
		IsSingle: boolExtension(schema.Extensions, ExtIsSingle),
	}

	required := make(map[string]bool, len(schema.Required))
	for _, fieldname := range schema.Required {
		required[fieldname] = true
	}

	// Component properties are an unordered map; sort so conversion is
	// deterministic run to run.
	names := make([]string, 0, len(schema.Properties))
	for fieldname := range schema.Properties {
		names = append(names, fieldname)
	}
	sort.Strings(names)

	for _, fieldname := range names {
		property := schema.Properties[fieldname]
		if property == nil {
			continue
		}
		field, err := convertField(name, fieldname, property)
		if err != nil {
			return nil, err
		}
		field.Reqd = required[fieldname]
		dt.Fields = append(dt.Fields, field)
	}
	return dt, nil
}

func convertField(doctype, fieldname string, ref *openapi3.SchemaRef) (model.DocField, error) {
	field := model.DocField{Fieldname: fieldname}

	if ref.Ref != "" {
		field.Kind = model.FieldKindLink
		field.Options = path.Base(ref.Ref)
	}

	src := ref.Value
	if src == nil {
		return field, nil
	}

	field.Label = src.Title
	field.Description = src.Description
	field.ReadOnly = src.ReadOnly
	if field.Kind == "" {
		field.Kind = fieldKind(src, &field)
	}

	ext := src.Extensions
	field.Permlevel = intExtension(ext, ExtPermlevel)
	var err error
	if field.DependsOn, err = dependsExtension(ext, ExtDependsOn); err != nil {
		return field, fmt.Errorf("openapi: schema %q field %q: %w", doctype, fieldname, err)
	}
	if field.MandatoryDependsOn, err = dependsExtension(ext, ExtMandatoryDependsOn); err != nil {
		return field, fmt.Errorf("openapi: schema %q field %q: %w", doctype, fieldname, err)
	}
	if field.ReadOnlyDependsOn, err = dependsExtension(ext, ExtReadOnlyDependsOn); err != nil {
		return field, fmt.Errorf("openapi: schema %q field %q: %w", doctype, fieldname, err)
	}
	return field, nil
}

func fieldKind(src *openapi3.Schema, field *model.DocField) model.FieldKind {
	switch firstType(src.Type) {
	case "integer":
		return model.FieldKindInt
	case "number":
		return model.FieldKindFloat
	case "boolean":
		return model.FieldKindCheck
	case "array":
		if src.Items != nil && src.Items.Ref != "" {
			field.Options = path.Base(src.Items.Ref)
		}
		return model.FieldKindTable
	case "string":
		if len(src.Enum) > 0 {
			options := make([]string, 0, len(src.Enum))
			for _, option := range src.Enum {
				options = append(options, fmt.Sprint(option))
			}
			field.Options = strings.Join(options, "\n")
			return model.FieldKindSelect
		}
		switch src.Format {
		case "date":
			return model.FieldKindDate
		case "date-time":
			return model.FieldKindDatetime
		}
		return model.FieldKindData
	default:
		return model.FieldKindData
	}
}

func firstType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func isObjectSchema(schema *openapi3.Schema) bool {
	t := firstType(schema.Type)
	return t == "object" || t == "" && len(schema.Properties) > 0
}

func dependsExtension(ext map[string]any, key string) (any, error) {
	raw, ok := ext[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		return trimmed, nil
	default:
		return nil, fmt.Errorf("extension %s must be a string or boolean, got %T", key, raw)
	}
}

func boolExtension(ext map[string]any, key string) bool {
	v, _ := ext[key].(bool)
	return v
}

func intExtension(ext map[string]any, key string) int {
	switch v := ext[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
