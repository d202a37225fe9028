package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grandstay/service-frontdesk/internal/application"
	"github.com/grandstay/service-frontdesk/pkg/auth"
	"github.com/grandstay/service-frontdesk/pkg/middleware"
	"github.com/grandstay/service-frontdesk/pkg/response"
)

// AdminHandler handles admin HTTP requests for ledger management and repair.
type AdminHandler struct {
	service *application.FrontDeskService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.FrontDeskService) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/bookings/:id/cancel", h.CancelBooking)
		admin.POST("/rooms/:number/reconcile", h.ReconcileRoom)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// CancelBooking handles POST /api/v1/admin/bookings/:id/cancel.
func (h *AdminHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), userID, bookingID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReconcileRoom handles POST /api/v1/admin/rooms/:number/reconcile.
func (h *AdminHandler) ReconcileRoom(c *gin.Context) {
	result, err := h.service.ReconcileRoom(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
