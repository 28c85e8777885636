// Package response writes the JSON envelope shared by every endpoint
package response

import (
	"errors"
	"net/http"

	"mangrovewatch/report-api/internal/service"
	"mangrovewatch/report-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyVerified    = "ALREADY_VERIFIED"
	CodeNoOTPIssued        = "NO_OTP_ISSUED"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeOTPMismatch        = "OTP_MISMATCH"
	CodeForbidden          = "FORBIDDEN"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeMissingFields      = "MISSING_FIELDS"
	CodeInternal           = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
)

type Envelope struct {
	Success   bool                    `json:"success"`
	Data      any                     `json:"data,omitempty"`
	Code      string                  `json:"code,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Errors    []validators.FieldError `json:"errors,omitempty"`
	RequestID string                  `json:"requestID,omitempty"`
}

type kind struct {
	target error
	status int
	code   string
}

// Ordered: ErrUserNotFound and ErrReportNotFound both match ErrNotFound.
var kinds = []kind{
	{service.ErrDuplicateAccount, http.StatusConflict, CodeDuplicateAccount},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{service.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{service.ErrAlreadyVerified, http.StatusConflict, CodeAlreadyVerified},
	{service.ErrNoOTPIssued, http.StatusBadRequest, CodeNoOTPIssued},
	{service.ErrOTPExpired, http.StatusBadRequest, CodeOTPExpired},
	{service.ErrOTPMismatch, http.StatusBadRequest, CodeOTPMismatch},
	{service.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{service.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
}

func requestID(c *gin.Context) string {
	return c.GetString("requestID")
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{
		Success:   true,
		Data:      data,
		RequestID: requestID(c),
	})
}

// Shared writes a success envelope without the request ID, for responses that
// are cached and replayed to other callers. The ID is still sent in the
// X-Request-ID header.
func Shared(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{
		Success: true,
		Data:    data,
	})
}

// Fail writes an error envelope and aborts the handler chain.
func Fail(c *gin.Context, status int, code, msg string, fields ...validators.FieldError) {
	c.AbortWithStatusJSON(status, Envelope{
		Success:   false,
		Code:      code,
		Error:     msg,
		Errors:    fields,
		RequestID: requestID(c),
	})
}

// Bind reports a failed ShouldBind* call. Oversized bodies get 413, anything
// else a field error list.
func Bind(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Fail(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body size exceeds limit")
		return
	}

	Validation(c, validators.FromBinding(err))
}

func Validation(c *gin.Context, errs validators.Errors) {
	Fail(c, http.StatusBadRequest, CodeValidation, "Request validation failed", errs...)
}

// Error maps a service error to its status and code. Anything that is not a
// known kind is logged and reported as an internal error without detail.
func Error(c *gin.Context, err error) {
	if errs, ok := validators.AsErrors(err); ok {
		Validation(c, errs)
		return
	}

	var mf *service.MissingFieldsError
	if errors.As(err, &mf) {
		fields := make([]validators.FieldError, 0, len(mf.Fields))
		for _, f := range mf.Fields {
			fields = append(fields, validators.FieldError{Field: f, Message: "is required"})
		}

		Fail(c, http.StatusBadRequest, CodeMissingFields, "Required fields are missing", fields...)
		return
	}

	for _, k := range kinds {
		if errors.Is(err, k.target) {
			Fail(c, k.status, k.code, capitalize(k.messageFor(err)))
			return
		}
	}

	zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID(c)))
	Fail(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
}

// messageFor keeps the specific not-found wording ("report not found") and
// uses the sentinel text for everything else, so wrapped internals never
// reach the client.
func (k kind) messageFor(err error) string {
	if k.target == service.ErrNotFound {
		switch {
		case errors.Is(err, service.ErrReportNotFound):
			return service.ErrReportNotFound.Error()
		case errors.Is(err, service.ErrUserNotFound):
			return service.ErrUserNotFound.Error()
		}
	}

	return k.target.Error()
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}

	return string(s[0]-'a'+'A') + s[1:]
}
