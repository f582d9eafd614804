package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: newMeta(c),
	})
}

// RespondError maps a service error onto the envelope: validation failures
// are 400, missing data 404, anything else 500 with the cause logged.
func RespondError(c *gin.Context, err error) {
	var v *ValidationError
	var nf *NotFoundError
	switch {
	case errors.As(err, &v):
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Code:    http.StatusBadRequest,
			Message: v.Message,
			Error:   &ErrorInfo{Code: CodeValidation, Message: v.Message, Field: v.Field},
			Meta:    newMeta(c),
		})
	case errors.As(err, &nf):
		Error(c, http.StatusNotFound, CodeNotFound, nf.Message)
	default:
		log.Error().Err(err).Str("request_id", getRequestID(c)).Str("path", c.Request.URL.Path).Msg("request failed")
		Error(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

func newMeta(c *gin.Context) Meta {
	return Meta{
		RequestID: getRequestID(c),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
