package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"iamkernel/apperror"
)

func TestFromErrorMapsKindsToStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		kind apperror.Kind
		want int
	}{
		{apperror.KindValidation, http.StatusBadRequest},
		{apperror.KindInvalidRequest, http.StatusBadRequest},
		{apperror.KindUnauthenticated, http.StatusUnauthorized},
		{apperror.KindInvalidClient, http.StatusUnauthorized},
		{apperror.KindInvalidGrant, http.StatusUnauthorized},
		{apperror.KindForbidden, http.StatusForbidden},
		{apperror.KindNotFound, http.StatusNotFound},
		{apperror.KindConflict, http.StatusConflict},
		{apperror.KindExpired, http.StatusGone},
		{apperror.KindUnsupportedGrantType, http.StatusBadRequest},
		{apperror.KindInvalidScope, http.StatusBadRequest},
		{apperror.KindUnavailable, http.StatusServiceUnavailable},
		{apperror.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromError(c, apperror.New(tt.kind, "boom"))

			if w.Code != tt.want {
				t.Errorf("status for %v = %d, want %d", tt.kind, w.Code, tt.want)
			}

			var body StandardResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if body.Success {
				t.Errorf("Success = true on an error response")
			}
			if body.Error == nil || body.Error.Code != string(tt.kind) {
				t.Errorf("Error.Code = %+v, want %q", body.Error, tt.kind)
			}
		})
	}
}

func TestFromErrorDefaultsUnknownErrorsToInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, httpStatusPlainError{})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

type httpStatusPlainError struct{}

func (httpStatusPlainError) Error() string { return "not an *apperror.Error" }
