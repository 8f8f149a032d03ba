package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type Response struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Code    string       `json:"code,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

func NewCodedErrorResponse(code, message string) *Response {
	return &Response{
		Status:  "error",
		Code:    code,
		Message: message,
	}
}

var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrNotFound:        http.StatusNotFound,
	apperrors.ErrBadRequest:      http.StatusBadRequest,
	apperrors.ErrUnauthorized:    http.StatusUnauthorized,
	apperrors.ErrForbidden:       http.StatusForbidden,
	apperrors.ErrInternal:        http.StatusInternalServerError,
	apperrors.ErrConflict:        http.StatusConflict,
	apperrors.ErrUnavailable:     http.StatusServiceUnavailable,
	apperrors.ErrTooManyRequests: http.StatusTooManyRequests,
}

// RespondError writes err as a JSON error. Application errors keep their
// message and reason; anything else is logged and hidden behind a generic
// 500.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		log.Error(err, "request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, NewCodedErrorResponse("INTERNAL", "internal server error"))
		return
	}

	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		log.Error(err, "request failed", "path", c.FullPath(), "reason", appErr.Reason)
	}
	c.JSON(status, NewCodedErrorResponse(appErr.Reason, appErr.Message))
}

var validationMessages = map[string]string{
	"required":   "field is required",
	"email":      "invalid email format",
	"min":        "value is too short",
	"max":        "value is too long",
	"len":        "value has the wrong length",
	"numeric":    "value must be numeric",
	"oneof":      "value is not allowed",
	"nationalid": "national id may contain only digits, dots and dashes",
	"slug":       "value must be a slug",
}

// RespondBindError answers a request whose body failed to bind.
func RespondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, e := range verrs {
			msg := validationMessages[e.Tag()]
			if msg == "" {
				msg = e.Error()
			}
			fields = append(fields, FieldError{Field: e.Field(), Message: msg})
		}
		c.JSON(http.StatusBadRequest, &Response{
			Status:  "error",
			Code:    "VALIDATION_ERROR",
			Message: "invalid request",
			Errors:  fields,
		})
		return
	}

	if errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, NewCodedErrorResponse("VALIDATION_ERROR", "request body is required"))
		return
	}
	c.JSON(http.StatusBadRequest, NewCodedErrorResponse("VALIDATION_ERROR", "malformed request body"))
}

// Provenance captures where the request came from for consent and audit
// records.
func Provenance(c *gin.Context) model.Provenance {
	return model.Provenance{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
