package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"iamkernel/apperror"
)

// statusFor maps a closed apperror.Kind onto the HTTP status a REST
// endpoint reports it as (the OAuth2/OIDC surface in package oauth2 does not
// use these kinds; it writes fosite's RFC 6749 errors directly).
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindInvalidRequest:
		return http.StatusBadRequest
	case apperror.KindUnauthenticated, apperror.KindInvalidClient, apperror.KindInvalidGrant:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindExpired:
		return http.StatusGone
	case apperror.KindUnsupportedGrantType, apperror.KindUnsupportedResponseType, apperror.KindInvalidScope:
		return http.StatusBadRequest
	case apperror.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// OK writes a 200 StandardResponse envelope carrying data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "ok", Data: data, Meta: map[string]interface{}{}})
}

// Created writes a 201 StandardResponse envelope carrying data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, StandardResponse{Success: true, Message: "created", Data: data, Meta: map[string]interface{}{}})
}

// NoContent writes a 204 with no body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes a StandardResponse error envelope at the given status.
func Error(c *gin.Context, status int, code, description string) {
	c.JSON(status, StandardResponse{
		Success: false,
		Message: description,
		Data:    nil,
		Error:   &ErrorDetail{Code: code, Description: description},
		Meta:    map[string]interface{}{},
	})
}

// FromError translates err (expected to be an *apperror.Error, or wrap one)
// into the right HTTP status and error envelope.
func FromError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	ae, _ := apperror.As(err)
	message := "an error occurred"
	if ae != nil {
		message = ae.Message
	}
	Error(c, statusFor(kind), string(kind), message)
}
