package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/grandstay/service-frontdesk/internal/application"
	"github.com/grandstay/service-frontdesk/pkg/auth"
	"github.com/grandstay/service-frontdesk/pkg/middleware"
	"github.com/grandstay/service-frontdesk/pkg/response"
)

// RoomHandler serves the room registry.
type RoomHandler struct {
	service *application.RoomService
}

func NewRoomHandler(service *application.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

func (h *RoomHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	rooms := r.Group("/api/v1/rooms")
	rooms.Use(
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleReceptionist, auth.RoleAdmin),
	)
	{
		rooms.GET("", h.ListRooms)
		rooms.GET("/available", h.ListAvailable)
		rooms.GET("/:number", h.GetRoom)
		rooms.PUT("/:number/status", h.UpdateStatus)
	}
}

// ListRooms handles GET /api/v1/rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rooms)
}

// ListAvailable handles GET /api/v1/rooms/available.
func (h *RoomHandler) ListAvailable(c *gin.Context) {
	rooms, err := h.service.ListAvailableRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rooms)
}

// GetRoom handles GET /api/v1/rooms/:number.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.service.GetRoom(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

// UpdateStatus handles PUT /api/v1/rooms/:number/status. Admins may pass
// ?force=true to skip the ledger checks.
func (h *RoomHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdateRoomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var (
		room *application.RoomDTO
		err  error
	)
	if c.Query("force") == "true" {
		if role, _ := middleware.GetUserRole(c); role != auth.RoleAdmin {
			response.Forbidden(c, "only admins can force a room status")
			return
		}
		room, err = h.service.ForceStatus(c.Request.Context(), userID, c.Param("number"), req)
	} else {
		room, err = h.service.OverrideStatus(c.Request.Context(), userID, c.Param("number"), req)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, room)
}
