package metaload_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docfield/pkg/metaload"
)

const taskJSON = `{
  "name": "Task",
  "fields": [
    {"fieldname": "subject", "fieldtype": "data", "reqd": true},
    {"fieldname": "status", "fieldtype": "select", "options": "Open\nClosed"},
    {
      "fieldname": "closing_notes",
      "fieldtype": "text",
      "depends_on": "eval: doc.status == 'Closed'"
    }
  ],
  "permissions": [
    {"role": "Projects User", "read": true, "write": true}
  ]
}`

const invoiceYAML = `name: Sales Invoice
fields:
  - fieldname: customer
    fieldtype: link
    options: Customer
  - fieldname: due_date
    fieldtype: date
    mandatory_depends_on: "eval: doc.status == 'Unpaid'"
  - fieldname: amended_from
    fieldtype: link
    depends_on: false
`

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"task.json":            {Data: []byte(taskJSON)},
		"selling/invoice.yaml": {Data: []byte(invoiceYAML)},
		"notes.txt":            {Data: []byte("not metadata")},
	}

	store, err := metaload.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS error: %v", err)
	}

	task, ok := store.DocType("Task")
	if !ok {
		t.Fatalf("Task doctype not loaded")
	}
	if got := task.Field("closing_notes").DependsOn; got != "eval: doc.status == 'Closed'" {
		t.Fatalf("depends_on = %v", got)
	}
	if len(task.Permissions) != 1 || task.Permissions[0].Role != "Projects User" {
		t.Fatalf("permissions not loaded: %+v", task.Permissions)
	}

	invoice, ok := store.DocType("Sales Invoice")
	if !ok {
		t.Fatalf("Sales Invoice doctype not loaded")
	}
	if got := invoice.Field("due_date").MandatoryDependsOn; got != "eval: doc.status == 'Unpaid'" {
		t.Fatalf("mandatory_depends_on = %v", got)
	}
	if got := invoice.Field("amended_from").DependsOn; got != false {
		t.Fatalf("boolean depends_on = %v, want false", got)
	}

	names := store.Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want two doctypes", names)
	}
}

func TestLoadFSSanitizesAuthoredText(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"dirty.json": {Data: []byte(`{
      "name": "Dirty",
      "fields": [{
        "fieldname": "notes",
        "label": "<script>alert(1)</script>Notes",
        "description": "Use <b>bold</b> words<script>alert(2)</script>"
      }]
    }`)}}

	store, err := metaload.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS error: %v", err)
	}
	dt, _ := store.DocType("Dirty")
	field := dt.Field("notes")
	if field.Label != "Notes" {
		t.Fatalf("label not sanitized: %q", field.Label)
	}
	if field.Description != "Use <b>bold</b> words" {
		t.Fatalf("description not sanitized: %q", field.Description)
	}
}

func TestLoadFSRejectsBadMetadata(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fsys fstest.MapFS
		frag string
	}{
		{
			"empty file",
			fstest.MapFS{"a.json": {Data: []byte("  ")}},
			"is empty",
		},
		{
			"unparseable",
			fstest.MapFS{"a.json": {Data: []byte("{nope")}},
			"invalid JSON or YAML",
		},
		{
			"missing name",
			fstest.MapFS{"a.json": {Data: []byte(`{"fields": []}`)}},
			"without a name",
		},
		{
			"duplicate field",
			fstest.MapFS{"a.json": {Data: []byte(`{
				"name": "Dup",
				"fields": [{"fieldname": "x"}, {"fieldname": "x"}]
			}`)}},
			"duplicate field",
		},
		{
			"duplicate doctype",
			fstest.MapFS{
				"a.json": {Data: []byte(`{"name": "Task", "fields": []}`)},
				"b.json": {Data: []byte(`{"name": "Task", "fields": []}`)},
			},
			"duplicate doctype",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := metaload.LoadFS(tc.fsys)
			if err == nil {
				t.Fatalf("LoadFS succeeded, want error containing %q", tc.frag)
			}
			if !strings.Contains(err.Error(), tc.frag) {
				t.Fatalf("error %q missing %q", err, tc.frag)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"task.json": {Data: []byte(taskJSON)}}
	dt, err := metaload.LoadFile(fsys, "task.json")
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	want := []string{"subject", "status", "closing_notes"}
	var got []string
	for _, f := range dt.Fields {
		got = append(got, f.Fieldname)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFSNilFilesystem(t *testing.T) {
	t.Parallel()

	store, err := metaload.LoadFS(nil)
	if err != nil {
		t.Fatalf("LoadFS(nil) error: %v", err)
	}
	if !store.Empty() {
		t.Fatalf("nil filesystem produced doctypes")
	}
	var nilStore *metaload.Store
	if _, ok := nilStore.DocType("Task"); ok {
		t.Fatalf("nil store resolved a doctype")
	}
}
