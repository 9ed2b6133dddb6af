// Package reporting evaluates predefined summary measures over stored
// entries. The measure SQL is kept portable between PostgreSQL and SQLite.
package reporting

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "entry-count",
		Name:        "Entry Count",
		Description: "Stored entries, with how many were flagged diabetic",
		SQL: `SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN diabetes THEN 1 ELSE 0 END), 0) AS diabetic
			FROM entries`,
	},
	{
		ID:          "fib4-risk-distribution",
		Name:        "FIB-4 Risk Distribution",
		Description: "Entries grouped by FIB-4 risk category; Unknown where FIB-4 was undefined",
		SQL: `SELECT CASE fib4_risk
				WHEN 0 THEN 'Low'
				WHEN 1 THEN 'Moderate'
				WHEN 2 THEN 'High'
				ELSE 'Unknown' END AS category,
			COUNT(*) AS total
			FROM entries
			GROUP BY fib4_risk
			ORDER BY COALESCE(fib4_risk, 3)`,
	},
	{
		ID:          "mean-scores",
		Name:        "Mean Scores",
		Description: "Mean of each index over entries where it was defined",
		SQL: `SELECT AVG(fib4) AS fib4, COUNT(fib4) AS fib4_n,
			AVG(apri) AS apri, COUNT(apri) AS apri_n,
			AVG(nfs) AS nfs, COUNT(nfs) AS nfs_n,
			AVG(homa_ir) AS homa_ir, COUNT(homa_ir) AS homa_ir_n
			FROM entries`,
	},
}

type Handler struct {
	q Querier
}

func NewHandler(q Querier) *Handler {
	return &Handler{q: q}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports")
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the rows.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	results, err := h.q.Query(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	})
}

func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
