package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
)

// BranchHandler exposes branch administration.  Branches are foreign key
// targets for tables and orders, so deletion is always soft.
type BranchHandler struct {
	Branches *repository.BranchRepo
}

// NewBranchHandler constructs a BranchHandler.
func NewBranchHandler(branches *repository.BranchRepo) *BranchHandler {
	if branches == nil {
		panic("nil repository passed to NewBranchHandler")
	}
	return &BranchHandler{Branches: branches}
}

// Add handles POST /v1/branches (manager/admin).
func (h *BranchHandler) Add(c echo.Context) error {
	var body struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	b := &model.Branch{Name: body.Name, Address: body.Address, Phone: body.Phone}
	if err := h.Branches.Create(c.Request().Context(), b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create branch"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"branch": b})
}

// List handles GET /v1/branches.
func (h *BranchHandler) List(c echo.Context) error {
	list, err := h.Branches.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load branches"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// Deactivate handles DELETE /v1/branches/:id (admin).  Soft delete only.
func (h *BranchHandler) Deactivate(c echo.Context) error {
	branchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || branchID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Branches.GetByID(ctx, branchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Branches.Deactivate(ctx, branchID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to deactivate branch"})
	}
	return c.NoContent(http.StatusNoContent)
}
