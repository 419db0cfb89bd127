package orders

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/aster/internal/repositories/sourceorder"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Handler serves the transactional order CRUD surface.
type Handler struct {
	repo sourceorder.OrderRepository
}

// NewHandler creates a new orders handler
func NewHandler(repo sourceorder.OrderRepository) *Handler {
	return &Handler{repo: repo}
}

// Register registers order routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id/status", h.UpdateStatus)
}

// List returns all orders in extract form
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "orders_handler.List")
	defer span.End()

	items, err := h.repo.List(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}

	return c.JSON(http.StatusOK, models.OrderListResponse{
		Items:      items,
		TotalCount: len(items),
	})
}

// Create creates a new order
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "orders_handler.Create")
	defer span.End()

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.repo.Create(ctx, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create order")
	}

	return c.JSON(http.StatusCreated, result)
}

// Get returns a single order by ID
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "orders_handler.Get")
	defer span.End()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	result, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get order")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "order not found")
	}

	return c.JSON(http.StatusOK, result)
}

// UpdateStatus transitions an order's status
func (h *Handler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "orders_handler.UpdateStatus")
	defer span.End()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req models.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update order status")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "order not found")
	}

	return c.JSON(http.StatusOK, result)
}
