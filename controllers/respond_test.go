package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"salonpro-scheduler/scheduling"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{scheduling.Conflict("slot taken"), http.StatusConflict},
		{scheduling.NewError(scheduling.ErrDuplicateWaitlistEntry, "already waiting"), http.StatusConflict},
		{scheduling.InvalidTransition("cannot cancel"), http.StatusUnprocessableEntity},
		{scheduling.NotFound("appointment not found"), http.StatusNotFound},
		{scheduling.Invalid("bad date"), http.StatusBadRequest},
		{fmt.Errorf("booking: %w", scheduling.Conflict("slot taken")), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		body string
	}{
		{errors.New("pq: password authentication failed"), `{"error":"Internal server error"}`},
		{scheduling.Conflict("slot taken").Arg("appointmentId", "abc"), `{"error":"slot taken"}`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, zerolog.Nop(), tt.err)
		if w.Body.String() != tt.body {
			t.Errorf("expected %s, got %s", tt.body, w.Body.String())
		}
	}
}

func TestBranchOr(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("branchId", "not-a-uuid")
	if _, ok := branchOr(c, [16]byte{1}); ok || w.Code != http.StatusUnauthorized {
		t.Errorf("a malformed branch claim should be rejected, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	if _, ok := branchOr(c, [16]byte{}); ok || w.Code != http.StatusBadRequest {
		t.Errorf("a missing branch should be a bad request, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	id, ok := branchOr(c, [16]byte{7})
	if !ok || id[0] != 7 {
		t.Error("expected the body branch without a claim")
	}
}
