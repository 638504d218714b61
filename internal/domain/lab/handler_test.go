package lab

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newHandlerFixture() (*Handler, *mockSampleRepo, *mockTestRepo) {
	svc, samples, tests := newTestService()
	return NewHandler(svc), samples, tests
}

func TestHandlerCreateSample(t *testing.T) {
	h, _, _ := newHandlerFixture()

	e := echo.New()
	body := `{"patient_id":1,"site":"nasal"}`
	req := httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateSample(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestHandlerCreateSample_MissingPatient(t *testing.T) {
	h, _, _ := newHandlerFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateSample(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandlerCreateTest_InvalidResult(t *testing.T) {
	h, _, _ := newHandlerFixture()

	e := echo.New()
	body := `{"sample_id":1,"result":"Maybe"}`
	req := httptest.NewRequest(http.MethodPost, "/tests", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateTest(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandlerNullResults(t *testing.T) {
	h, _, tests := newHandlerFixture()
	tests.tests[1] = &LabTest{ID: 1, SampleID: 1}
	tests.tests[2] = &LabTest{ID: 2, SampleID: 1, Result: strptr(ResultPositive)}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/quality/null-results", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.NullResults(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["null_results"] != 1 {
		t.Errorf("expected 1 null result, got %d", out["null_results"])
	}
}

func TestHandlerInvalidResults_EmptyIsJSONArray(t *testing.T) {
	h, _, _ := newHandlerFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/quality/invalid-results", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.InvalidResults(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "[") {
		t.Errorf("expected a JSON array, got %s", rec.Body.String())
	}
}

func TestHandlerQualityReport(t *testing.T) {
	h, _, tests := newHandlerFixture()
	tests.tests[1] = &LabTest{ID: 1, SampleID: 1, Result: strptr("bogus")}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/quality/report", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.QualityReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report QualityReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.InvalidResults) != 1 {
		t.Errorf("expected 1 invalid result, got %d", len(report.InvalidResults))
	}
}

func TestHandlerListSamples_FilterByPatient(t *testing.T) {
	h, samples, _ := newHandlerFixture()
	samples.samples[1] = &Sample{ID: 1, PatientID: 7}
	samples.samples[2] = &Sample{ID: 2, PatientID: 9}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/samples?patient_id=7", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListSamples(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct {
		Data  []*Sample `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || len(out.Data) != 1 || out.Data[0].PatientID != 7 {
		t.Errorf("expected only patient 7's sample, got %+v", out)
	}
}

func TestHandlerListSamples_BadPatientID(t *testing.T) {
	h, _, _ := newHandlerFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/samples?patient_id=abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ListSamples(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
