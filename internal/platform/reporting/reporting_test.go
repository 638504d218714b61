package reporting

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestPredefinedMeasures(t *testing.T) {
	if len(PredefinedMeasures) != 3 {
		t.Fatalf("expected 3 predefined measures, got %d", len(PredefinedMeasures))
	}

	expectedIDs := []string{
		"tests-per-patient",
		"outcome-counts",
		"age-group-treatment-success",
	}

	for i, expectedID := range expectedIDs {
		if PredefinedMeasures[i].ID != expectedID {
			t.Errorf("expected measure[%d].ID = %s, got %s", i, expectedID, PredefinedMeasures[i].ID)
		}
	}
}

func TestPredefinedMeasures_HaveSQL(t *testing.T) {
	for _, m := range PredefinedMeasures {
		if m.SQL == "" {
			t.Errorf("measure %s has empty SQL", m.ID)
		}
		if m.Name == "" {
			t.Errorf("measure %s has empty name", m.ID)
		}
		if m.Description == "" {
			t.Errorf("measure %s has empty description", m.ID)
		}
	}
}

func TestFindMeasure_Exists(t *testing.T) {
	m := FindMeasure("tests-per-patient")
	if m == nil {
		t.Fatal("expected to find tests-per-patient measure")
	}
	if m.Name != "Tests Per Patient" {
		t.Errorf("expected 'Tests Per Patient', got %s", m.Name)
	}
}

func TestFindMeasure_NotFound(t *testing.T) {
	if m := FindMeasure("nonexistent"); m != nil {
		t.Error("expected nil for nonexistent measure")
	}
}

func TestTestsPerPatientMeasure_JoinsThroughSample(t *testing.T) {
	m := FindMeasure("tests-per-patient")
	if m == nil {
		t.Fatal("expected tests-per-patient measure")
	}
	// Tests hang off samples, not patients, so the count must join through
	// sample to reach patient_id.
	if !strings.Contains(m.SQL, "JOIN lab_test") {
		t.Error("expected join against lab_test")
	}
	if !strings.Contains(m.SQL, "GROUP BY s.patient_id") {
		t.Error("expected grouping by patient_id")
	}
}

func TestOutcomeCountsMeasure_CountsBothResults(t *testing.T) {
	m := FindMeasure("outcome-counts")
	if m == nil {
		t.Fatal("expected outcome-counts measure")
	}
	if !strings.Contains(m.SQL, "'Positive'") || !strings.Contains(m.SQL, "'Negative'") {
		t.Error("expected conditional counts for both result values")
	}
	if !strings.Contains(m.SQL, "positive_count") || !strings.Contains(m.SQL, "negative_count") {
		t.Error("expected positive_count and negative_count output columns")
	}
}

func TestAgeGroupMeasure_BucketsAndZeroRate(t *testing.T) {
	m := FindMeasure("age-group-treatment-success")
	if m == nil {
		t.Fatal("expected age-group-treatment-success measure")
	}

	for _, bucket := range []string{"'<30'", "'30-50'", "'>50'"} {
		if !strings.Contains(m.SQL, bucket) {
			t.Errorf("expected age bucket %s in SQL", bucket)
		}
	}

	// Groups without any treatments must report 0.00, not NULL and not a
	// division error.
	if !strings.Contains(m.SQL, "NULLIF(COUNT(outcome), 0)") {
		t.Error("expected NULLIF guard against empty groups")
	}
	if !strings.Contains(m.SQL, "COALESCE(ROUND(") {
		t.Error("expected COALESCE so empty groups report 0")
	}
	if !strings.Contains(m.SQL, "LEFT JOIN treatment") {
		t.Error("expected LEFT JOIN so patients without treatments still bucket")
	}
}

func TestEvaluateMeasure_NotFound(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nonexistent")

	h := NewHandler(nil)
	err := h.EvaluateMeasure(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}

func TestListMeasures(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHandler(nil)
	if err := h.ListMeasures(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	for _, m := range PredefinedMeasures {
		if !strings.Contains(rec.Body.String(), m.ID) {
			t.Errorf("expected response to contain measure %s", m.ID)
		}
	}
}
