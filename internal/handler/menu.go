package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
)

// MenuHandler serves the public menu browse endpoint.  Item prices read
// here are only quotes; the authoritative snapshot is taken again when an
// order is placed.
type MenuHandler struct {
	Menu *repository.MenuItemRepo
}

// NewMenuHandler constructs a MenuHandler.
func NewMenuHandler(menu *repository.MenuItemRepo) *MenuHandler {
	if menu == nil {
		panic("nil repository passed to NewMenuHandler")
	}
	return &MenuHandler{Menu: menu}
}

// List handles GET /v1/menu.  The response is cached by the browse cache
// middleware.
func (h *MenuHandler) List(c echo.Context) error {
	items, err := h.Menu.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load menu"})
	}
	type entry struct {
		ID         uint64 `json:"id"`
		Name       string `json:"name"`
		PriceCents int64  `json:"price_cents"`
		InStock    bool   `json:"in_stock"`
	}
	out := make([]entry, 0, len(items))
	for _, it := range items {
		out = append(out, entry{
			ID:         it.ID,
			Name:       it.Name,
			PriceCents: it.PriceCents,
			InStock:    !it.TrackStock || it.Stock > 0,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
