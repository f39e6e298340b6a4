package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// TraceIDKey is the gin context key the trace-id middleware sets and the
// response envelope reads.
const TraceIDKey = "trace_id"

func traceID(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// HandleServiceError maps service-layer sentinel errors onto HTTP responses.
// Anything unrecognized is a 500 with the detail kept server-side.
func HandleServiceError(c *gin.Context, err error) {
	var stockErr *InsufficientStockError

	switch {
	case errors.Is(err, ErrNotFound):
		RespondError(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, ErrForbidden):
		RespondError(c, http.StatusForbidden, "You do not have access to this resource")
	case errors.Is(err, ErrExpired):
		RespondError(c, http.StatusGone, "This checkout session has expired, please start over")
	case errors.Is(err, ErrConflict):
		RespondError(c, http.StatusConflict, "Operation conflicts with the current state")
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, APIResponse{
			Status:  "error",
			Code:    http.StatusConflict,
			Message: "Insufficient stock",
			TraceID: traceID(c),
			Data:    gin.H{"available_stock": stockErr.Available},
		})
	case errors.Is(err, ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, APIResponse{
			Status:  "error",
			Code:    http.StatusUnauthorized,
			Message: "Please log in to complete your purchase",
			TraceID: traceID(c),
			Data:    gin.H{"requires_login": true},
		})
	case errors.Is(err, ErrGateway):
		RespondError(c, http.StatusBadGateway, "Payment processor unavailable")
	case errors.Is(err, ErrDatabaseError):
		log.Printf("Database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("Unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
