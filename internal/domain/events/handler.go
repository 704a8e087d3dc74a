package events

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the static event taxonomy so entry forms can build
// their category-scoped selectors without hardcoding the registry.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) RegisterRoutes(api *echo.Group) {
	grp := api.Group("/events")
	grp.GET("", h.ListEvents)
	grp.GET("/categories", h.ListCategories)
	grp.GET("/milestones", h.ListMilestones)
	grp.GET("/complications", h.ListComplications)
}

type eventEntry struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// ListEvents returns the registry, optionally filtered by ?category=.
func (h *Handler) ListEvents(c echo.Context) error {
	if cat := c.QueryParam("category"); cat != "" {
		names := FilterByCategory(Category(cat))
		out := make([]eventEntry, 0, len(names))
		for _, n := range names {
			out = append(out, eventEntry{Name: n, Category: Category(cat)})
		}
		return c.JSON(http.StatusOK, out)
	}
	names := Names()
	out := make([]eventEntry, 0, len(names))
	for _, n := range names {
		out = append(out, eventEntry{Name: n, Category: CategoryOf(n)})
	}
	return c.JSON(http.StatusOK, out)
}

// ListCategories returns the selectable categories in display order.
func (h *Handler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, Categories)
}

// ListMilestones returns the fixed milestone-event list.
func (h *Handler) ListMilestones(c echo.Context) error {
	return c.JSON(http.StatusOK, Milestones())
}

// ListComplications returns the fixed complication-event list.
func (h *Handler) ListComplications(c echo.Context) error {
	return c.JSON(http.StatusOK, Complications())
}
