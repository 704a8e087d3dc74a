package cohort

import (
	"bytes"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/trajectory/trajectory/internal/domain/record"
	"github.com/trajectory/trajectory/internal/platform/auth"
)

// Handler serves the cohort dashboard and the cross-facility archive
// export. Every endpoint recomputes from a fresh table snapshot; nothing
// is cached between requests.
type Handler struct {
	svc *record.Service
}

func NewHandler(svc *record.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	grp := api.Group("/cohort")
	grp.GET("/disease-groups", h.DiseaseGroups)
	grp.GET("/trajectory", h.Trajectory)
	grp.GET("/velocity", h.Velocity)
	grp.GET("/phase-durations", h.PhaseDurations)
	grp.GET("/milestones", h.Milestones)

	api.GET("/export/archived", h.ExportArchived, auth.RequireMaster())
}

func (h *Handler) table(c echo.Context) (*record.Table, error) {
	facility, err := auth.EffectiveFacility(c)
	if err != nil {
		return nil, err
	}
	t, err := h.svc.Table(c.Request().Context(), facility)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return t, nil
}

// DiseaseGroups lists groups with at least one archived patient.
func (h *Handler) DiseaseGroups(c echo.Context) error {
	t, err := h.table(c)
	if err != nil {
		return err
	}
	groups := DiseaseGroups(t)
	if groups == nil {
		groups = []string{}
	}
	return c.JSON(http.StatusOK, groups)
}

// Trajectory returns the mean trajectory for ?disease_group=, optionally
// overlaying the active patient named by ?overlay=.
func (h *Handler) Trajectory(c echo.Context) error {
	group := c.QueryParam("disease_group")
	if group == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "disease_group is required")
	}
	t, err := h.table(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MeanTrajectory(t, group, c.QueryParam("overlay")))
}

// Velocity returns the recovery-speed curve for ?disease_group=.
func (h *Handler) Velocity(c echo.Context) error {
	group := c.QueryParam("disease_group")
	if group == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "disease_group is required")
	}
	t, err := h.table(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RecoveryVelocity(t, group))
}

// PhaseDurations returns the per-group phase-duration distributions.
func (h *Handler) PhaseDurations(c echo.Context) error {
	t, err := h.table(c)
	if err != nil {
		return err
	}
	out := PhaseDurations(t)
	if out == nil {
		out = []PhaseDurationGroup{}
	}
	return c.JSON(http.StatusOK, out)
}

// Milestones returns the milestone and complication summary table.
func (h *Handler) Milestones(c echo.Context) error {
	t, err := h.table(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MilestoneSummary(t))
}

// ExportArchived streams every facility's archived rows as one CSV with
// a facility_id column prepended. Master sessions only.
func (h *Handler) ExportArchived(c echo.Context) error {
	byFacility, err := h.svc.ArchivedByFacility(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var facilities []string
	for f := range byFacility {
		facilities = append(facilities, f)
	}
	sort.Strings(facilities)

	out, err := record.EncodeCSV(record.NewTable(), "-")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	for _, f := range facilities {
		data, err := record.EncodeCSV(byFacility[f], f)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		// Drop the repeated header line.
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			out = append(out, data[idx+1:]...)
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="archived_records.csv"`)
	return c.Blob(http.StatusOK, "text/csv", out)
}
