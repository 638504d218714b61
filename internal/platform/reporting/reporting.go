package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/clinsight/clinsight/internal/platform/auth"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

// PredefinedMeasures is the list of available reporting measures.
//
// Ages are derived by calendar-year subtraction, matching
// patient.AgeOn, so the SQL buckets and the in-process buckets always
// agree for the same reference date.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "tests-per-patient",
		Name:        "Tests Per Patient",
		Description: "Number of lab tests recorded for each patient, across all of the patient's samples",
		SQL: `SELECT s.patient_id AS patient_id, COUNT(lt.id) AS total_tests
FROM sample s
JOIN lab_test lt ON lt.sample_id = s.id
GROUP BY s.patient_id
ORDER BY s.patient_id`,
		Parameters: []string{},
	},
	{
		ID:          "outcome-counts",
		Name:        "Outcome Counts Per Patient",
		Description: "Positive and negative test result counts for each patient that has at least one test",
		SQL: `SELECT s.patient_id AS patient_id,
       COALESCE(SUM(CASE WHEN lt.result = 'Positive' THEN 1 ELSE 0 END), 0) AS positive_count,
       COALESCE(SUM(CASE WHEN lt.result = 'Negative' THEN 1 ELSE 0 END), 0) AS negative_count
FROM sample s
JOIN lab_test lt ON lt.sample_id = s.id
GROUP BY s.patient_id
ORDER BY s.patient_id`,
		Parameters: []string{},
	},
	{
		ID:          "age-group-treatment-success",
		Name:        "Treatment Success Rate by Age Group",
		Description: "Percentage of treatments with a Successful outcome, per patient age group (<30, 30-50, >50)",
		SQL: `SELECT age_group,
       COUNT(outcome) AS total_treatments,
       COALESCE(SUM(CASE WHEN outcome = 'Successful' THEN 1 ELSE 0 END), 0) AS successful_treatments,
       COALESCE(ROUND(SUM(CASE WHEN outcome = 'Successful' THEN 1 ELSE 0 END) * 100.0
                      / NULLIF(COUNT(outcome), 0), 2), 0.00) AS success_rate_percent
FROM (
    SELECT CASE
               WHEN EXTRACT(YEAR FROM CURRENT_DATE) - EXTRACT(YEAR FROM p.dob) < 30 THEN '<30'
               WHEN EXTRACT(YEAR FROM CURRENT_DATE) - EXTRACT(YEAR FROM p.dob) <= 50 THEN '30-50'
               ELSE '>50'
           END AS age_group,
           tr.outcome AS outcome
    FROM patient p
    LEFT JOIN treatment tr ON tr.patient_id = p.id
) grouped
GROUP BY age_group
ORDER BY age_group`,
		Parameters: []string{},
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	pool *pgxpool.Pool
}

// NewHandler creates a new reporting handler.
func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole("admin", "analyst"))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params := map[string]string{}
	for _, p := range measure.Parameters {
		if v := c.QueryParam(p); v != "" {
			params[p] = v
		}
	}

	report, err := Evaluate(c.Request().Context(), h.pool, measure)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}
	report.Parameters = params

	return c.JSON(http.StatusOK, report)
}

// Evaluate runs a measure's SQL against the pool and wraps the rows in a
// MeasureReport. Shared by the HTTP handler and the report CLI.
func Evaluate(ctx context.Context, pool *pgxpool.Pool, measure *MeasureDefinition) (*MeasureReport, error) {
	results, err := executeSQL(ctx, pool, measure.SQL)
	if err != nil {
		return nil, err
	}
	return &MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
	}, nil
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func executeSQL(ctx context.Context, pool *pgxpool.Pool, sql string) ([]map[string]interface{}, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, rows.Err()
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
