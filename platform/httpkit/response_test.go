package httpkit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assurdesk_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	return c, rec
}

func TestHandleErrorNilIsNotHandled(t *testing.T) {
	c, _ := newTestContext(t)
	if HandleError(c, nil) {
		t.Fatal("nil error must not be handled")
	}
}

func TestHandleErrorMapsDomainKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperr.NotFound("conversation not found"), http.StatusNotFound},
		{"validation", apperr.Validation("from must be before to"), http.StatusBadRequest},
		{"invalid state", apperr.InvalidState("message is not pending validation"), http.StatusBadRequest},
		{"conflict", apperr.Conflict("email already in use"), http.StatusConflict},
		{"unauthorized", apperr.Unauthorized("missing token"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			if !HandleError(c, tt.err) {
				t.Fatal("expected error to be handled")
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleErrorHidesUnexpectedErrors(t *testing.T) {
	c, rec := newTestContext(t)
	dbErr := errors.New(`ERROR: relation "conversations" does not exist (SQLSTATE 42P01)`)

	if !HandleError(c, dbErr) {
		t.Fatal("expected error to be handled")
	}

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "internal server error" {
		t.Fatalf("body error = %q, want generic message", body.Error)
	}
	if strings.Contains(rec.Body.String(), "SQLSTATE") {
		t.Fatal("internal error details leaked to the response")
	}

	// The original error stays on the context for the request logger.
	if len(c.Errors) != 1 || !errors.Is(c.Errors[0].Err, dbErr) {
		t.Fatalf("context errors = %v", c.Errors)
	}
}
