package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grandstay/service-frontdesk/pkg/domain"
)

// ErrorBody is the machine-readable error returned to clients.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the common response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries paging information for list responses.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, domain.CodeValidation, message)
}

// Unauthorized writes a 401 error.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, domain.CodeUnauthorized, message)
}

// Forbidden writes a 403 error.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, domain.CodeForbidden, message)
}

// Error maps err to a status code and a stable code. Only DomainError
// messages reach the client; anything else is reported as internal.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	de, ok := domain.AsDomainError(err)
	if !ok {
		abort(c, http.StatusInternalServerError, "internal_error", "an internal error occurred")
		return
	}
	abort(c, StatusFor(de.Kind), de.Code, de.Message)
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}
