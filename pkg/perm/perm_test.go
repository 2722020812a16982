package perm_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docfield/pkg/model"
	"github.com/goliatone/go-docfield/pkg/perm"
)

func TestFromDocType(t *testing.T) {
	t.Parallel()

	dt := &model.DocType{
		Name: "Sales Invoice",
		Permissions: []model.DocPerm{
			{Role: "Sales User", Permlevel: 0, Read: true, Write: true},
			{Role: "Sales User", Permlevel: 1, Read: true},
			{Role: "Accounts Manager", Permlevel: 1, Read: true, Write: true},
			{Role: "System Manager", Permlevel: 2, Read: true, Write: true},
		},
	}

	tiers := perm.FromDocType(dt, []string{"Sales User", "Accounts Manager"})

	want := perm.Tiers{
		0: {Read: true, Write: true},
		1: {Read: true, Write: true},
	}
	if diff := cmp.Diff(want, tiers); diff != "" {
		t.Fatalf("tier folding mismatch (-want +got):\n%s", diff)
	}

	if tiers.CanRead(2) || tiers.CanWrite(2) {
		t.Fatalf("tier 2 granted without a matching role")
	}
	if !tiers.CanRead(0) || !tiers.CanWrite(1) {
		t.Fatalf("held-role grants missing")
	}
}

func TestFromDocTypeNilAndEmpty(t *testing.T) {
	t.Parallel()

	if got := perm.FromDocType(nil, []string{"Sales User"}); len(got) != 0 {
		t.Fatalf("nil doctype produced grants: %v", got)
	}
	dt := &model.DocType{Permissions: []model.DocPerm{{Role: "Sales User", Read: true}}}
	if got := perm.FromDocType(dt, nil); len(got) != 0 {
		t.Fatalf("empty role set produced grants: %v", got)
	}
}

func TestACLOverride(t *testing.T) {
	t.Parallel()

	override := &perm.ACLOverride{
		HiddenFields:   []string{"margin"},
		ReadOnlyFields: []string{"rate"},
	}
	if !override.Hides("margin") || override.Hides("rate") {
		t.Fatalf("Hides gave wrong answers")
	}
	if !override.ForcesReadOnly("rate") || override.ForcesReadOnly("margin") {
		t.Fatalf("ForcesReadOnly gave wrong answers")
	}

	var nilOverride *perm.ACLOverride
	if nilOverride.Hides("margin") || nilOverride.ForcesReadOnly("rate") {
		t.Fatalf("nil override must grant nothing")
	}
}
