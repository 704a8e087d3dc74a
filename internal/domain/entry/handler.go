package entry

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trajectory/trajectory/internal/domain/derive"
	"github.com/trajectory/trajectory/internal/domain/record"
	"github.com/trajectory/trajectory/internal/platform/auth"
	"github.com/trajectory/trajectory/pkg/pagination"
)

// Handler is the patient and record-entry HTTP surface: listing
// patients, the trajectory sheet, entry-form defaults, record upsert and
// the archive lifecycle.
type Handler struct {
	svc           *record.Service
	jumpThreshold int
}

func NewHandler(svc *record.Service, jumpThreshold int) *Handler {
	if jumpThreshold <= 0 {
		jumpThreshold = DefaultJumpThreshold
	}
	return &Handler{svc: svc, jumpThreshold: jumpThreshold}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id/records", h.PatientRecords)
	api.GET("/patients/:id/defaults", h.Defaults)
	api.POST("/patients/:id/archive", h.Archive)
	api.POST("/patients/:id/reactivate", h.Reactivate)
	api.POST("/records", h.UpsertRecord)
}

// ListPatients returns patient IDs, filtered by ?status=active|archived.
func (h *Handler) ListPatients(c echo.Context) error {
	facility, err := auth.EffectiveFacility(c)
	if err != nil {
		return err
	}
	var status record.Status
	switch c.QueryParam("status") {
	case "":
	case "active":
		status = record.StatusActive
	case "archived":
		status = record.StatusArchived
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status must be active or archived")
	}
	ids, err := h.svc.Patients(c.Request().Context(), facility, status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	pg := pagination.FromContext(c)
	start, end := pg.Slice(len(ids))
	return c.JSON(http.StatusOK, pagination.NewResponse(ids[start:end], len(ids), pg.Limit, pg.Offset))
}

// recordWithView pairs a stored record with its recomputed derived
// fields, the shape the trajectory sheet charts directly.
type recordWithView struct {
	*record.ScoreRecord
	Derived derive.View `json:"derived"`
}

// PatientRecords returns one patient's ordered records with derived
// views.
func (h *Handler) PatientRecords(c echo.Context) error {
	facility, err := auth.EffectiveFacility(c)
	if err != nil {
		return err
	}
	history, err := h.svc.History(c.Request().Context(), facility, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views := derive.Derive(history)
	out := make([]recordWithView, len(history))
	for i, r := range history {
		out[i] = recordWithView{ScoreRecord: r, Derived: views[i]}
	}
	return c.JSON(http.StatusOK, out)
}

// Defaults returns the entry-form defaults for ?date=&slot=.
func (h *Handler) Defaults(c echo.Context) error {
	facility, err := auth.EffectiveFacility(c)
	if err != nil {
		return err
	}
	date, err := record.ParseDate(c.QueryParam("date"))
	if err != nil || date.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required as YYYY-MM-DD")
	}
	slot := record.TimeSlot(c.QueryParam("slot"))
	if !slot.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "slot must be AM or PM")
	}
	history, err := h.svc.History(c.Request().Context(), facility, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, DefaultsFor(history, date, slot))
}

type upsertResponse struct {
	Record  *record.ScoreRecord `json:"record"`
	Warning *JumpWarning        `json:"warning,omitempty"`
}

// UpsertRecord stores a record, replacing any record at the same
// (patient, date, slot), and reports a non-blocking warning when the
// composite score jumped implausibly since the previous record. The
// warning never prevents the save.
func (h *Handler) UpsertRecord(c echo.Context) error {
	facility, err := auth.EffectiveFacility(c)
	if err != nil {
		return err
	}
	var rec record.ScoreRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var warning *JumpWarning
	if rec.CompositeScore != nil {
		history, err := h.svc.History(ctx, facility, rec.PatientID)
		if err == nil {
			warning = CheckJump(history, rec.Date, rec.Slot, *rec.CompositeScore, h.jumpThreshold)
		}
	}

	if err := h.svc.Upsert(ctx, facility, &rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, upsertResponse{Record: &rec, Warning: warning})
}

type archiveRequest struct {
	Outcome string `json:"outcome"`
}

// Archive marks a patient discharged.
func (h *Handler) Archive(c echo.Context) error {
	facility, err := auth.EffectiveFacility(c)
	if err != nil {
		return err
	}
	var req archiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Archive(c.Request().Context(), facility, c.Param("id"), req.Outcome); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Reactivate returns an archived patient to active.
func (h *Handler) Reactivate(c echo.Context) error {
	facility, err := auth.EffectiveFacility(c)
	if err != nil {
		return err
	}
	if err := h.svc.Reactivate(c.Request().Context(), facility, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
