package engine_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docfield/pkg/depends"
	"github.com/goliatone/go-docfield/pkg/engine"
	"github.com/goliatone/go-docfield/pkg/fieldstate"
	"github.com/goliatone/go-docfield/pkg/model"
	"github.com/goliatone/go-docfield/pkg/perm"
	"github.com/goliatone/go-docfield/pkg/runtime"
)

func taskDocType() *model.DocType {
	return &model.DocType{
		Name: "Task",
		Fields: []model.DocField{
			{Fieldname: "subject", Kind: model.FieldKindData},
			{Fieldname: "status", Kind: model.FieldKindSelect, Options: "Open\nClosed"},
			{
				Fieldname: "closing_notes",
				Kind:      model.FieldKindText,
				DependsOn: "eval: doc.status == 'Closed'",
			},
			{
				Fieldname:          "due_date",
				Kind:               model.FieldKindDate,
				MandatoryDependsOn: "eval: doc.status == 'Open'",
			},
			{Fieldname: "internal_margin", Kind: model.FieldKindFloat, Permlevel: 1},
		},
		Permissions: []model.DocPerm{
			{Role: "Projects User", Permlevel: 0, Read: true, Write: true},
			{Role: "Projects Manager", Permlevel: 1, Read: true, Write: true},
		},
	}
}

func projectsUserEngine() *engine.Engine {
	store := runtime.NewStore()
	store.SetBoot(runtime.Boot{User: "user@example.com", Roles: []string{"Projects User"}})
	return engine.New(engine.WithStore(store))
}

func TestStatuses(t *testing.T) {
	t.Parallel()

	eng := projectsUserEngine()
	doc := model.Document{"doctype": "Task", "status": "Open"}

	statuses, err := eng.Statuses(taskDocType(), doc, nil, nil)
	if err != nil {
		t.Fatalf("Statuses error: %v", err)
	}

	want := map[string]fieldstate.Status{
		"subject":         fieldstate.StatusWrite,
		"status":          fieldstate.StatusWrite,
		"closing_notes":   fieldstate.StatusNone,  // guard unsatisfied
		"due_date":        fieldstate.StatusWrite, // mandatory, still editable
		"internal_margin": fieldstate.StatusNone,  // tier 1 not granted
	}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusesFlipOnDocumentChange(t *testing.T) {
	t.Parallel()

	eng := projectsUserEngine()
	dt := taskDocType()
	doc := model.Document{"doctype": "Task", "status": "Open"}

	statuses, err := eng.Statuses(dt, doc, nil, nil)
	if err != nil {
		t.Fatalf("Statuses error: %v", err)
	}
	if statuses["closing_notes"] != fieldstate.StatusNone {
		t.Fatalf("open task shows closing_notes")
	}

	doc["status"] = "Closed"
	statuses, err = eng.Statuses(dt, doc, nil, nil)
	if err != nil {
		t.Fatalf("Statuses error: %v", err)
	}
	if statuses["closing_notes"] != fieldstate.StatusWrite {
		t.Fatalf("closed task hides closing_notes: %v", statuses["closing_notes"])
	}
}

func TestFieldStatusWithPrecomputedStates(t *testing.T) {
	t.Parallel()

	eng := projectsUserEngine()
	hidden := true
	states := map[string]fieldstate.State{
		"closing_notes": {HiddenDueToDependency: &hidden},
	}

	status, err := eng.FieldStatus(engine.Request{
		Field:   model.DocField{Fieldname: "closing_notes", DependsOn: "eval: doc.status == 'Closed'"},
		Doc:     model.Document{"doctype": "Task", "status": "Closed"},
		DocType: taskDocType(),
		States:  states,
	})
	if err != nil {
		t.Fatalf("FieldStatus error: %v", err)
	}
	// Pre-computed map wins over the (satisfied) expression.
	if status != fieldstate.StatusNone {
		t.Fatalf("status = %v, want None from pre-computed state", status)
	}
}

func TestFieldStatusDegradesOnBrokenExpression(t *testing.T) {
	t.Parallel()

	eng := projectsUserEngine()
	status, err := eng.FieldStatus(engine.Request{
		Field:   model.DocField{Fieldname: "broken", DependsOn: "eval: doc.status =="},
		Doc:     model.Document{"doctype": "Task", "status": "Open"},
		DocType: taskDocType(),
	})
	if err == nil {
		t.Fatalf("broken expression did not surface")
	}
	if !errors.Is(err, depends.ErrInvalidExpression) {
		t.Fatalf("error %v does not match ErrInvalidExpression", err)
	}
	// Static defaults win: the field stays visible and editable.
	if status != fieldstate.StatusWrite {
		t.Fatalf("degraded status = %v, want Write", status)
	}
}

func TestFieldStatusWithoutPermissionRulesIsPermissive(t *testing.T) {
	t.Parallel()

	eng := engine.New()
	status, err := eng.FieldStatus(engine.Request{
		Field: model.DocField{Fieldname: "subject"},
		Doc:   model.Document{"doctype": "Note"},
	})
	if err != nil {
		t.Fatalf("FieldStatus error: %v", err)
	}
	if status != fieldstate.StatusWrite {
		t.Fatalf("status = %v, want Write without permission rules", status)
	}
}

func TestFieldStatusHonorsACLOverride(t *testing.T) {
	t.Parallel()

	eng := projectsUserEngine()
	status, err := eng.FieldStatus(engine.Request{
		Field:    model.DocField{Fieldname: "subject"},
		Doc:      model.Document{"doctype": "Task"},
		DocType:  taskDocType(),
		Override: &perm.ACLOverride{ReadOnlyFields: []string{"subject"}},
	})
	if err != nil {
		t.Fatalf("FieldStatus error: %v", err)
	}
	if status != fieldstate.StatusRead {
		t.Fatalf("status = %v, want Read via ACL override", status)
	}
}
