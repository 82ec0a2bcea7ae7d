package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lexuanthang19/food-deli-deploy/internal/broadcast"
	"github.com/lexuanthang19/food-deli-deploy/internal/middleware"
	"github.com/lexuanthang19/food-deli-deploy/internal/model"
)

// EventHandler streams hub events to clients over server-sent events.
// Customers are always joined to their own room; staff may additionally
// follow a branch room or, with no branch filter, the global room.
type EventHandler struct {
	Hub *broadcast.Hub
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(hub *broadcast.Hub) *EventHandler {
	if hub == nil {
		panic("nil hub passed to NewEventHandler")
	}
	return &EventHandler{Hub: hub}
}

// Stream handles GET /v1/events/stream.  Delivery is at-least-once: a
// client joined to several rooms can see the same event more than once
// and must deduplicate by the event's id field.
func (h *EventHandler) Stream(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rooms := []string{broadcast.CustomerRoom(userID)}
	if model.StaffRole(middleware.Role(c)) {
		if b := c.QueryParam("branch"); b != "" {
			branchID, err := strconv.ParseUint(b, 10, 64)
			if err != nil || branchID == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
			}
			rooms = append(rooms, broadcast.BranchRoom(branchID))
		} else {
			rooms = append(rooms, broadcast.RoomGlobal)
		}
	}
	events, cancel := h.Hub.Subscribe(64, rooms...)
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	// heartbeat keeps intermediaries from closing an idle stream
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev, open := <-events:
			if !open {
				return nil
			}
			body, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, body); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
