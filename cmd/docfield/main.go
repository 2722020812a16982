// Command docfield loads document-type metadata and a document, then prints
// the per-field display status the engine derives. With -interactive it
// prompts for new field values and recomputes after every answer, which is
// the same recompute-on-change loop a form UI runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-docfield/pkg/engine"
	"github.com/goliatone/go-docfield/pkg/fieldstate"
	"github.com/goliatone/go-docfield/pkg/metaload"
	"github.com/goliatone/go-docfield/pkg/model"
	"github.com/goliatone/go-docfield/pkg/openapi"
	"github.com/goliatone/go-docfield/pkg/runtime"
)

func main() {
	metaDir := flag.String("meta", "", "directory of doctype metadata files (JSON/YAML)")
	openapiFile := flag.String("openapi", "", "OpenAPI document to derive doctypes from")
	doctypeName := flag.String("doctype", "", "doctype to evaluate")
	docFile := flag.String("doc", "", "document JSON file (empty document if omitted)")
	user := flag.String("user", "administrator", "session user")
	roles := flag.String("roles", "", "comma-separated session roles")
	timeZone := flag.String("tz", "UTC", "session time zone")
	interactive := flag.Bool("interactive", false, "prompt for field values and recompute")
	flag.Parse()

	dt, eng, err := setup(*metaDir, *openapiFile, *doctypeName, *user, *roles, *timeZone)
	if err != nil {
		log.Fatalf("docfield: %v", err)
	}

	doc, err := loadDocument(*docFile, dt.Name)
	if err != nil {
		log.Fatalf("docfield: %v", err)
	}

	printStatuses(eng, dt, doc)

	if *interactive {
		if err := interact(eng, dt, doc); err != nil {
			log.Fatalf("docfield: %v", err)
		}
	}
}

func setup(metaDir, openapiFile, doctypeName, user, roles, timeZone string) (*model.DocType, *engine.Engine, error) {
	var dt *model.DocType

	options := []engine.Option{}
	switch {
	case metaDir != "":
		meta, err := metaload.LoadFS(os.DirFS(metaDir))
		if err != nil {
			return nil, nil, err
		}
		loaded, ok := meta.DocType(doctypeName)
		if !ok {
			names := meta.Names()
			sort.Strings(names)
			return nil, nil, fmt.Errorf("doctype %q not found; have %s", doctypeName, strings.Join(names, ", "))
		}
		dt = loaded
		options = append(options, engine.WithMetadata(meta))
	case openapiFile != "":
		raw, err := os.ReadFile(filepath.Clean(openapiFile))
		if err != nil {
			return nil, nil, err
		}
		doctypes, err := openapi.New().DocTypes(context.Background(), raw)
		if err != nil {
			return nil, nil, err
		}
		loaded, ok := doctypes[doctypeName]
		if !ok {
			return nil, nil, fmt.Errorf("doctype %q not found in OpenAPI document", doctypeName)
		}
		dt = loaded
	default:
		return nil, nil, fmt.Errorf("one of -meta or -openapi is required")
	}

	store := runtime.NewStore()
	store.SetBoot(runtime.Boot{
		User:     user,
		Roles:    splitRoles(roles),
		Defaults: runtime.SysDefaults{TimeZone: timeZone},
	})
	options = append(options, engine.WithStore(store))
	return dt, engine.New(options...), nil
}

func loadDocument(path, doctype string) (model.Document, error) {
	doc := model.Document{model.KeyDoctype: doctype}
	if path == "" {
		return doc, nil
	}
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Doctype() == "" {
		doc[model.KeyDoctype] = doctype
	}
	return doc, nil
}

func printStatuses(eng *engine.Engine, dt *model.DocType, doc model.Document) {
	statuses, err := eng.Statuses(dt, doc, nil, nil)
	if err != nil {
		// Metadata defects degrade fields to their static defaults; keep
		// rendering but make the defect visible.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tKIND\tSTATUS\tVALUE")
	for _, field := range dt.Fields {
		value := ""
		if v := doc.Get(field.Fieldname); v != nil {
			value = fmt.Sprint(v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", field.Fieldname, field.Kind, statuses[field.Fieldname], value)
	}
	w.Flush()
}

func interact(eng *engine.Engine, dt *model.DocType, doc model.Document) error {
	for {
		statuses, err := eng.Statuses(dt, doc, nil, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}

		writable := writableFields(dt, statuses)
		if len(writable) == 0 {
			fmt.Println("no writable fields")
			return nil
		}

		var fieldname string
		prompt := &survey.Select{
			Message: "Field to change (esc to quit):",
			Options: writable,
		}
		if err := survey.AskOne(prompt, &fieldname); err != nil {
			return quietInterrupt(err)
		}

		value, err := askValue(dt.Field(fieldname))
		if err != nil {
			return quietInterrupt(err)
		}
		doc[fieldname] = value

		printStatuses(eng, dt, doc)
	}
}

func writableFields(dt *model.DocType, statuses map[string]fieldstate.Status) []string {
	var out []string
	for _, field := range dt.Fields {
		if statuses[field.Fieldname] == fieldstate.StatusWrite {
			out = append(out, field.Fieldname)
		}
	}
	return out
}

func askValue(field *model.DocField) (any, error) {
	message := field.Fieldname + ":"
	switch field.Kind {
	case model.FieldKindSelect:
		options := strings.Split(field.Options, "\n")
		var out string
		err := survey.AskOne(&survey.Select{Message: message, Options: options}, &out)
		return out, err
	case model.FieldKindCheck:
		var out bool
		err := survey.AskOne(&survey.Confirm{Message: message}, &out)
		return out, err
	default:
		var out string
		err := survey.AskOne(&survey.Input{Message: message}, &out)
		return out, err
	}
}

func splitRoles(raw string) []string {
	var out []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			out = append(out, role)
		}
	}
	return out
}

func quietInterrupt(err error) error {
	if err == terminal.InterruptErr {
		return nil
	}
	return err
}
