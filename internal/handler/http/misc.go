package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plantguard/internal/service"
)

// HealthHandler reports store connectivity.
type HealthHandler struct {
	healthService *service.HealthService
}

func NewHealthHandler(healthService *service.HealthService) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// Health answers 200 when the store is reachable and 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	status := h.healthService.Check(c.Request.Context())
	if status.Connected {
		c.JSON(http.StatusOK, gin.H{"status": "ok", status.Store: "connected"})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", status.Store: "disconnected"})
}

// MarketHandler lists supplements.
type MarketHandler struct {
	marketService *service.MarketService
}

func NewMarketHandler(marketService *service.MarketService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

func (h *MarketHandler) List(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, gin.H{"items": h.marketService.Items()})
}

// ContactHandler accepts the contact-us form.
type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "name, message, and a valid email are required.")
		return
	}
	id, err := h.contactService.Submit(c.Request.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, gin.H{"id": id})
}
