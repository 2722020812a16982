package fieldstate_test

import (
	"testing"

	"github.com/goliatone/go-docfield/pkg/fieldstate"
	"github.com/goliatone/go-docfield/pkg/model"
	"github.com/goliatone/go-docfield/pkg/perm"
)

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	readWrite := perm.Tiers{0: {Read: true, Write: true}}
	readOnlyTier := perm.Tiers{0: {Read: true}}

	cases := []struct {
		name     string
		field    model.DocField
		state    *fieldstate.State
		tiers    perm.Tiers
		override *perm.ACLOverride
		want     fieldstate.Status
	}{
		{
			name:  "plain writable field",
			field: model.DocField{Fieldname: "subject"},
			tiers: readWrite,
			want:  fieldstate.StatusWrite,
		},
		{
			name:  "hidden by dependency",
			field: model.DocField{Fieldname: "subject"},
			state: &fieldstate.State{HiddenDueToDependency: boolPtr(true)},
			tiers: readWrite,
			want:  fieldstate.StatusNone,
		},
		{
			name:  "shown by dependency stays writable",
			field: model.DocField{Fieldname: "subject"},
			state: &fieldstate.State{HiddenDueToDependency: boolPtr(false)},
			tiers: readWrite,
			want:  fieldstate.StatusWrite,
		},
		{
			name:  "unreadable tier",
			field: model.DocField{Fieldname: "rate", Permlevel: 1},
			tiers: readWrite, // grants tier 0 only
			want:  fieldstate.StatusNone,
		},
		{
			name:     "acl hides field",
			field:    model.DocField{Fieldname: "rate"},
			tiers:    readWrite,
			override: &perm.ACLOverride{HiddenFields: []string{"rate"}},
			want:     fieldstate.StatusNone,
		},
		{
			name:  "hidden wins over read-only",
			field: model.DocField{Fieldname: "subject", ReadOnly: true},
			state: &fieldstate.State{HiddenDueToDependency: boolPtr(true), ReadOnly: intPtr(1)},
			tiers: readWrite,
			want:  fieldstate.StatusNone,
		},
		{
			name:  "read-only by dependency",
			field: model.DocField{Fieldname: "status"},
			state: &fieldstate.State{ReadOnly: intPtr(1)},
			tiers: readWrite,
			want:  fieldstate.StatusRead,
		},
		{
			name:  "dependency read-only zero does not force read",
			field: model.DocField{Fieldname: "status"},
			state: &fieldstate.State{ReadOnly: intPtr(0)},
			tiers: readWrite,
			want:  fieldstate.StatusWrite,
		},
		{
			name:  "static read-only metadata",
			field: model.DocField{Fieldname: "created_by", ReadOnly: true},
			tiers: readWrite,
			want:  fieldstate.StatusRead,
		},
		{
			name:  "tier without write access",
			field: model.DocField{Fieldname: "subject"},
			tiers: readOnlyTier,
			want:  fieldstate.StatusRead,
		},
		{
			name:     "acl forces read-only",
			field:    model.DocField{Fieldname: "subject"},
			tiers:    readWrite,
			override: &perm.ACLOverride{ReadOnlyFields: []string{"subject"}},
			want:     fieldstate.StatusRead,
		},
		{
			name:  "no state entry falls back to static defaults",
			field: model.DocField{Fieldname: "subject"},
			state: nil,
			tiers: readWrite,
			want:  fieldstate.StatusWrite,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := fieldstate.Resolve(tc.field, tc.state, tc.tiers, tc.override)
			if got != tc.want {
				t.Fatalf("Resolve = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	if fieldstate.StatusNone.String() != "None" ||
		fieldstate.StatusRead.String() != "Read" ||
		fieldstate.StatusWrite.String() != "Write" {
		t.Fatalf("Status.String() mismatch")
	}
}
