package warehouse

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/aster/internal/repositories/warehouse"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/labstack/echo/v4"
)

// Handler serves warehouse inspection routes.
type Handler struct {
	repo *warehouse.Repository
}

// NewHandler creates a new warehouse handler
func NewHandler(repo *warehouse.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register registers warehouse routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/tables", h.Tables)
	g.GET("/rows/:table", h.Rows)
	g.POST("/reset", h.Reset)
}

// Tables lists the inspectable warehouse tables
func (h *Handler) Tables(c echo.Context) error {
	_, span := tracing.StartSpan(c.Request().Context(), "warehouse_handler.Tables")
	defer span.End()

	return c.JSON(http.StatusOK, map[string][]string{"tables": h.repo.Tables()})
}

// Rows returns every row of one warehouse table
func (h *Handler) Rows(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "warehouse_handler.Rows")
	defer span.End()

	table := c.Param("table")

	rows, err := h.repo.Rows(ctx, table)
	if err != nil {
		if errors.Is(err, warehouse.ErrUnknownTable) {
			return httperror.NewHTTPErrorf(http.StatusNotFound, "unknown warehouse table %s", table)
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to read warehouse table")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"table": table,
		"rows":  rows,
		"count": len(rows),
	})
}

// Reset truncates every warehouse table
func (h *Handler) Reset(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "warehouse_handler.Reset")
	defer span.End()

	if err := h.repo.Reset(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reset warehouse")
	}

	return c.NoContent(http.StatusNoContent)
}
