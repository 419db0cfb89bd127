package load

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	etlload "github.com/Ramsey-B/aster/pkg/etl/load"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/labstack/echo/v4"
)

// Handler triggers load cycles and reports on the most recent one.
type Handler struct {
	service *etlload.Service
}

// NewHandler creates a new load handler
func NewHandler(service *etlload.Service) *Handler {
	return &Handler{service: service}
}

// Register registers load routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Run)
	g.GET("/latest", h.Latest)
}

// Run executes one load cycle
func (h *Handler) Run(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "load_handler.Run")
	defer span.End()

	result, err := h.service.Run(ctx)
	if err != nil {
		switch {
		case errors.Is(err, etlload.ErrLoadInProgress):
			return httperror.NewHTTPError(http.StatusConflict, "a load cycle is already running")
		case errors.Is(err, etlload.ErrSourceUnavailable):
			return httperror.NewHTTPErrorf(http.StatusServiceUnavailable, "source database unavailable: %s", err.Error())
		case errors.Is(err, etlload.ErrWarehouseUnavailable):
			return httperror.NewHTTPErrorf(http.StatusServiceUnavailable, "warehouse database unavailable: %s", err.Error())
		default:
			return httperror.NewHTTPError(http.StatusInternalServerError, "load cycle failed")
		}
	}

	return c.JSON(http.StatusOK, result)
}

// Latest returns the most recent load result
func (h *Handler) Latest(c echo.Context) error {
	_, span := tracing.StartSpan(c.Request().Context(), "load_handler.Latest")
	defer span.End()

	result := h.service.Latest()
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no load cycle has run yet")
	}

	return c.JSON(http.StatusOK, result)
}
