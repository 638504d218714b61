package db

import (
	"testing"
)

func TestTypesAligned(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"bigint", "bigint", true},
		{"bigint", "int8", true},
		{"bigserial", "bigint", true},
		{"integer", "int4", true},
		{"serial", "integer", true},
		{"BIGINT", "bigint", true},
		{"character varying", "varchar", true},
		{"text", "character varying", false},
		{"bigint", "integer", false},
		{"text", "bigint", false},
	}

	for _, tc := range cases {
		if got := TypesAligned(tc.a, tc.b); got != tc.want {
			t.Errorf("TypesAligned(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDDLType(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"bigint", "BIGINT", true},
		{"int8", "BIGINT", true},
		{"integer", "INTEGER", true},
		{"smallint", "SMALLINT", true},
		{"text", "TEXT", true},
		{"character varying", "VARCHAR", true},
		{"date", "DATE", true},
		{"jsonb", "", false},
		{"uuid", "", false},
	}

	for _, tc := range cases {
		got, ok := DDLType(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("DDLType(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCheckIdents(t *testing.T) {
	if err := checkIdents("patient", "patient_id", "fk_sample_patient"); err != nil {
		t.Errorf("unexpected error for valid identifiers: %v", err)
	}

	for _, bad := range []string{"", "1patient", "patient;drop", "pa-tient", "patient id"} {
		if err := checkIdents(bad); err == nil {
			t.Errorf("expected error for identifier %q", bad)
		}
	}
}

func TestReportingForeignKeys_ParentFirst(t *testing.T) {
	// sample must get its FK to patient before lab_test references sample,
	// so a fresh database converges in one Apply pass.
	order := map[string]int{}
	for i, fk := range ReportingForeignKeys {
		order[fk.Table] = i
	}

	if order["sample"] > order["lab_test"] {
		t.Error("sample FK must be declared before lab_test FK")
	}
}

func TestReportingForeignKeys_ValidIdents(t *testing.T) {
	for _, fk := range ReportingForeignKeys {
		if err := checkIdents(fk.Constraint, fk.Table, fk.Column, fk.RefTable, fk.RefColumn); err != nil {
			t.Errorf("foreign key %s: %v", fk.Constraint, err)
		}
	}
	for _, uq := range ReportingUniqueKeys {
		if err := checkIdents(uq.Constraint, uq.Table, uq.Column); err != nil {
			t.Errorf("unique key %s: %v", uq.Constraint, err)
		}
	}
}

func TestReportingKeys_CoverAllChildTables(t *testing.T) {
	tables := map[string]bool{}
	for _, fk := range ReportingForeignKeys {
		tables[fk.Table] = true
	}
	for _, want := range []string{"sample", "lab_test", "treatment"} {
		if !tables[want] {
			t.Errorf("missing foreign key declaration for table %s", want)
		}
	}
}
