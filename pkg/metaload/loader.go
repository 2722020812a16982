// Package metaload parses document-type metadata files (JSON or YAML) from
// a filesystem into model.DocType schemas. Authored label and description
// strings are sanitized on the way in, since they end up in rendered forms.
package metaload

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docfield/pkg/model"
)

// Store holds the doctypes loaded from one metadata tree, keyed by name.
type Store struct {
	doctypes map[string]*model.DocType
}

// DocType returns the schema for the named doctype.
func (s *Store) DocType(name string) (*model.DocType, bool) {
	if s == nil {
		return nil, false
	}
	dt, ok := s.doctypes[name]
	return dt, ok
}

// Names returns the loaded doctype names in no particular order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.doctypes))
	for name := range s.doctypes {
		names = append(names, name)
	}
	return names
}

// Empty reports whether the store holds any doctypes.
func (s *Store) Empty() bool {
	return s == nil || len(s.doctypes) == 0
}

// LoadFS walks fsys and parses every .json/.yaml/.yml file as one doctype
// definition. When fsys is nil or holds no metadata files, the returned
// store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{doctypes: make(map[string]*model.DocType)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isMetadataFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("metaload: read %s: %w", path, err)
		}
		dt, err := parseDocType(data, path)
		if err != nil {
			return err
		}
		if _, exists := store.doctypes[dt.Name]; exists {
			return fmt.Errorf("metaload: duplicate doctype %q (file %s)", dt.Name, path)
		}
		store.doctypes[dt.Name] = dt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// LoadFile parses a single doctype definition file.
func LoadFile(fsys fs.FS, path string) (*model.DocType, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("metaload: read %s: %w", path, err)
	}
	return parseDocType(data, path)
}

func isMetadataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func parseDocType(data []byte, source string) (*model.DocType, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("metaload: file %s is empty", source)
	}

	var dt model.DocType
	if err := json.Unmarshal(data, &dt); err != nil {
		dt = model.DocType{}
		if err := yaml.Unmarshal(data, &dt); err != nil {
			return nil, fmt.Errorf("metaload: parse %s: invalid JSON or YAML", source)
		}
	}

	if strings.TrimSpace(dt.Name) == "" {
		return nil, fmt.Errorf("metaload: file %s defines a doctype without a name", source)
	}

	seen := make(map[string]bool, len(dt.Fields))
	for i := range dt.Fields {
		field := &dt.Fields[i]
		if strings.TrimSpace(field.Fieldname) == "" {
			return nil, fmt.Errorf("metaload: doctype %q (file %s) has a field without a fieldname", dt.Name, source)
		}
		if seen[field.Fieldname] {
			return nil, fmt.Errorf("metaload: doctype %q (file %s) defines duplicate field %q", dt.Name, source, field.Fieldname)
		}
		seen[field.Fieldname] = true

		field.Label = sanitizeLabel(field.Label)
		field.Description = sanitizeDescription(field.Description)
		normalizeDependsSlots(field)
	}
	return &dt, nil
}

// normalizeDependsSlots collapses the decoded dependency values to the forms
// the evaluator accepts: strings stay strings, JSON/YAML booleans stay
// bools, numbers collapse to their boolean value, anything else is dropped.
func normalizeDependsSlots(field *model.DocField) {
	field.DependsOn = normalizeDepends(field.DependsOn)
	field.MandatoryDependsOn = normalizeDepends(field.MandatoryDependsOn)
	field.ReadOnlyDependsOn = normalizeDepends(field.ReadOnlyDependsOn)
}

func normalizeDepends(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		return trimmed
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return nil
	}
}
