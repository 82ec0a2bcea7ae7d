package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
	"github.com/lexuanthang19/food-deli-deploy/internal/tables"
)

// TableHandler exposes table administration and the staff occupancy
// override.  Occupancy changes go through the registry so the change
// event is published; plain reads hit the repository directly.
type TableHandler struct {
	Registry *tables.Registry
	Tables   *repository.TableRepo
	Branches *repository.BranchRepo
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(registry *tables.Registry, tableRepo *repository.TableRepo, branchRepo *repository.BranchRepo) *TableHandler {
	if registry == nil || tableRepo == nil || branchRepo == nil {
		panic("nil dependency passed to NewTableHandler")
	}
	return &TableHandler{Registry: registry, Tables: tableRepo, Branches: branchRepo}
}

// Add handles POST /v1/tables (manager/admin).  A duplicate label within
// the branch answers 409.
func (h *TableHandler) Add(c echo.Context) error {
	var body struct {
		BranchID uint64 `json:"branch_id"`
		Label    string `json:"label"`
		Capacity int    `json:"capacity"`
		Floor    int    `json:"floor"`
	}
	if err := c.Bind(&body); err != nil || body.BranchID == 0 || body.Label == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch_id and label are required"})
	}
	ctx := c.Request().Context()
	if _, err := h.Branches.GetByID(ctx, body.BranchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if body.Capacity <= 0 {
		body.Capacity = 4
	}
	if body.Floor <= 0 {
		body.Floor = 1
	}
	t := &model.Table{
		BranchID: body.BranchID,
		Label:    body.Label,
		Capacity: body.Capacity,
		Status:   model.TableAvailable,
		Floor:    body.Floor,
		QRToken:  newQRToken(),
	}
	if err := h.Tables.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table label already exists in this branch"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create table"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"table": t})
}

// ListByBranch handles GET /v1/branches/:id/tables.
func (h *TableHandler) ListByBranch(c echo.Context) error {
	branchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || branchID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	list, err := h.Tables.ListByBranch(c.Request().Context(), branchID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tables"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// GetByQR handles GET /v1/tables/qr/:token, resolving a printed QR code
// in the walk-up ordering flow.
func (h *TableHandler) GetByQR(c echo.Context) error {
	t, err := h.Tables.GetByQRToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"table": t})
}

// UpdateStatus handles PATCH /v1/tables/:id/status, the staff override,
// e.g. freeing a table after the bill is settled.
func (h *TableHandler) UpdateStatus(c echo.Context) error {
	tableID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		Status model.TableStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil || !model.ValidTableStatus(body.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be Available, Occupied or Reserved"})
	}
	t, err := h.Registry.SetStatus(c.Request().Context(), tableID, body.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update table"})
	}
	return c.JSON(http.StatusOK, echo.Map{"table": t})
}

// newQRToken returns a random identifier printed into the table's QR code.
func newQRToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
