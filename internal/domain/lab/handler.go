package lab

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinsight/clinsight/internal/platform/auth"
	"github.com/clinsight/clinsight/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "analyst", "clinician"))
	readGroup.GET("/samples", h.ListSamples)
	readGroup.GET("/samples/:id", h.GetSample)
	readGroup.GET("/samples/:id/tests", h.ListTestsBySample)
	readGroup.GET("/tests", h.ListTests)
	readGroup.GET("/tests/:id", h.GetTest)

	writeGroup := api.Group("", auth.RequireRole("admin", "clinician"))
	writeGroup.POST("/samples", h.CreateSample)
	writeGroup.PUT("/samples/:id", h.UpdateSample)
	writeGroup.DELETE("/samples/:id", h.DeleteSample)
	writeGroup.POST("/tests", h.CreateTest)
	writeGroup.PUT("/tests/:id", h.UpdateTest)
	writeGroup.DELETE("/tests/:id", h.DeleteTest)

	qualityGroup := api.Group("/quality", auth.RequireRole("admin", "analyst"))
	qualityGroup.GET("/null-results", h.NullResults)
	qualityGroup.GET("/invalid-results", h.InvalidResults)
	qualityGroup.GET("/report", h.QualityReport)
}

// -- Sample Handlers --

func (h *Handler) CreateSample(c echo.Context) error {
	var sm Sample
	if err := c.Bind(&sm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSample(c.Request().Context(), &sm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sm)
}

func (h *Handler) GetSample(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sm, err := h.svc.GetSample(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "sample not found")
	}
	return c.JSON(http.StatusOK, sm)
}

func (h *Handler) ListSamples(c echo.Context) error {
	pg := pagination.FromContext(c)
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := strconv.ParseInt(patientID, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListSamplesByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.ListSamples(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateSample(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var sm Sample
	if err := c.Bind(&sm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sm.ID = id
	if err := h.svc.UpdateSample(c.Request().Context(), &sm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sm)
}

func (h *Handler) DeleteSample(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSample(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Test Handlers --

func (h *Handler) CreateTest(c echo.Context) error {
	var t LabTest
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateTest(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTest(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTest(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "test not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTests(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListTests(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListTestsBySample(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListTestsBySample(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateTest(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var t LabTest
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t.ID = id
	if err := h.svc.UpdateTest(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTest(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTest(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Quality Handlers --

func (h *Handler) NullResults(c echo.Context) error {
	n, err := h.svc.CountNullResults(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"null_results": n})
}

func (h *Handler) InvalidResults(c echo.Context) error {
	items, err := h.svc.ListInvalidResults(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*LabTest{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) QualityReport(c echo.Context) error {
	report, err := h.svc.RunQualityChecks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
