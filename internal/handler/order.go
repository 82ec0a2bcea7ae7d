package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lexuanthang19/food-deli-deploy/internal/inventory"
	"github.com/lexuanthang19/food-deli-deploy/internal/lifecycle"
	"github.com/lexuanthang19/food-deli-deploy/internal/middleware"
	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/payment"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
)

// OrderHandler exposes the order lifecycle over HTTP.  All business rules
// live in the coordinator; this layer only binds requests, extracts the
// authenticated identity and maps errors onto status codes.
type OrderHandler struct {
	Coordinator *lifecycle.Coordinator
	Orders      *repository.OrderRepo
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(coord *lifecycle.Coordinator, orders *repository.OrderRepo) *OrderHandler {
	if coord == nil || orders == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	return &OrderHandler{Coordinator: coord, Orders: orders}
}

// Place handles POST /v1/orders.  It returns 201 with the order and, for
// online checkout, the redirect URL; stock shortages come back as 409
// with per-item detail so the storefront can render exactly which items
// are short.
func (h *OrderHandler) Place(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Items         []lifecycle.ItemRequest `json:"items"`
		OrderType     model.OrderKind         `json:"order_type"`
		PaymentMethod model.PaymentMethod     `json:"payment_method"`
		BranchID      *uint64                 `json:"branch_id"`
		TableID       *uint64                 `json:"table_id"`
		Address       string                  `json:"address"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Coordinator.PlaceOrder(c.Request().Context(), lifecycle.PlaceOrderRequest{
		UserID:        userID,
		Items:         body.Items,
		Kind:          body.OrderType,
		PaymentMethod: body.PaymentMethod,
		BranchID:      body.BranchID,
		TableID:       body.TableID,
		Address:       body.Address,
	})
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Verify handles POST /v1/orders/verify, the pull half of settlement.
// The checkout provider redirects the customer here with the outcome; the
// endpoint is idempotent and converges with the push callback.
func (h *OrderHandler) Verify(c echo.Context) error {
	var body struct {
		OrderID uint64 `json:"order_id"`
		Success bool   `json:"success"`
	}
	if err := c.Bind(&body); err != nil || body.OrderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	order, err := h.Coordinator.Finalize(c.Request().Context(), body.OrderID, body.Success)
	if err != nil {
		return orderError(c, err)
	}
	if order == nil {
		// failure path: the order was rolled back and no longer exists
		return c.JSON(http.StatusOK, echo.Map{"paid": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"paid": order.Payment, "status": order.Status})
}

// MyOrders handles GET /v1/my-orders for the authenticated customer.
func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// List handles GET /v1/orders for the staff console.
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.Orders.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// UpdateStatus handles PATCH /v1/orders/:id/status, the staff override.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	order, err := h.Coordinator.UpdateStatus(c.Request().Context(), middleware.Role(c), orderID, body.Status)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order})
}

// MarkPaid handles POST /v1/orders/:id/mark-paid, manual cash collection.
func (h *OrderHandler) MarkPaid(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, err := h.Coordinator.MarkPaid(c.Request().Context(), middleware.Role(c), orderID)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": order})
}

// orderError maps coordinator errors onto HTTP responses.
func orderError(c echo.Context, err error) error {
	var short *inventory.InsufficientStockError
	switch {
	case errors.As(err, &short):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":              "some items are out of stock",
			"out_of_stock_items": short.Items,
		})
	case errors.Is(err, lifecycle.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, payment.ErrUpstream):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable, order is pending retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
