package handler

import (
	"net/http"

	"github.com/betledger/ledger/internal/service"
	"github.com/gin-gonic/gin"
)

// EventHandler serves the upcoming odds catalog.
type EventHandler struct {
	eventSvc *service.EventService
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(eventSvc *service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// ListEvents godoc
// GET /api/events?house=Superbet&page=1&limit=20 [JWT]
func (h *EventHandler) ListEvents(c *gin.Context) {
	page, limit := parsePagination(c)

	events, err := h.eventSvc.Upcoming(c.Request.Context(), c.Query("house"))
	if err != nil {
		respondDomainError(c, err, "could not list events")
		return
	}
	respondList(c, paginate(events, page, limit), len(events), page, limit)
}

// GetEvent godoc
// GET /api/events/:house/:id [JWT]
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventSvc.Find(c.Request.Context(), c.Param("house"), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "could not fetch event")
		return
	}
	respondSuccess(c, http.StatusOK, event)
}
