package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grandstay/service-frontdesk/internal/application"
	"github.com/grandstay/service-frontdesk/pkg/auth"
	"github.com/grandstay/service-frontdesk/pkg/middleware"
	"github.com/grandstay/service-frontdesk/pkg/response"
)

// FrontDeskHandler handles check-in, check-out and booking lookups.
type FrontDeskHandler struct {
	service  *application.FrontDeskService
	invoices *application.InvoiceService
}

// NewFrontDeskHandler creates a new FrontDeskHandler.
func NewFrontDeskHandler(service *application.FrontDeskService, invoices *application.InvoiceService) *FrontDeskHandler {
	return &FrontDeskHandler{service: service, invoices: invoices}
}

// RegisterRoutes registers the front-desk routes on the given router group.
func (h *FrontDeskHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	staff := []gin.HandlerFunc{
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleReceptionist, auth.RoleAdmin),
	}

	desk := r.Group("/api/v1/frontdesk")
	desk.Use(staff...)
	{
		desk.POST("/check-in", h.CheckIn)
		desk.GET("/bookings/:id", h.GetBooking)
		desk.POST("/bookings/:id/check-out", h.CheckOut)
		desk.GET("/bookings/:id/invoice", h.GetInvoice)
	}

	guests := r.Group("/api/v1/guests")
	guests.Use(staff...)
	guests.GET("/:id/bookings", h.GuestHistory)
}

// CheckIn handles POST /api/v1/frontdesk/check-in.
func (h *FrontDeskHandler) CheckIn(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CheckIn(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CheckOut handles POST /api/v1/frontdesk/bookings/:id/check-out. The body
// is optional.
func (h *FrontDeskHandler) CheckOut(c *gin.Context) {
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

	var req application.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CheckOut(c.Request.Context(), userID, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/frontdesk/bookings/:id.
func (h *FrontDeskHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetInvoice handles GET /api/v1/frontdesk/bookings/:id/invoice.
func (h *FrontDeskHandler) GetInvoice(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.invoices.GetInvoiceForBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GuestHistory handles GET /api/v1/guests/:id/bookings.
func (h *FrontDeskHandler) GuestHistory(c *gin.Context) {
	guestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid guest ID")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.BookingHistory(c.Request.Context(), guestID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
