package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2030-01-10", want: time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)},
		{in: " 2030-01-10 ", want: time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)},
		{in: "2030-01-10T14:30:00Z", want: time.Date(2030, 1, 10, 14, 30, 0, 0, time.UTC)},
		{in: "2030-01-10T05:30:00+05:30", want: time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)},
		{in: "10/01/2030", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDateRangeReportsEachField(t *testing.T) {
	_, _, err := ParseDateRange("startDate", "nope", "endDate", "also nope")
	require.Error(t, err)

	var fieldErrs FieldValidationErrors
	require.True(t, errors.As(err, &fieldErrs))
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "startDate", fieldErrs[0].Field)
	assert.Equal(t, "endDate", fieldErrs[1].Field)

	start, end, err := ParseDateRange("start", "2030-01-10", "end", "2030-01-12")
	require.NoError(t, err)
	assert.True(t, start.Before(end))
}

func TestValidateID(t *testing.T) {
	ok, _ := ValidateID("6f1c2a4e-8d7b-4c1a-9e3f-0a1b2c3d4e5f")
	assert.True(t, ok)

	for _, id := range []string{"", "a b", "../etc", strings.Repeat("x", MaxIDLength+1)} {
		ok, msg := ValidateID(id)
		assert.False(t, ok, id)
		assert.NotEmpty(t, msg)
	}
}

func TestAppErrorMatching(t *testing.T) {
	slot := ConflictFailure("SlotUnavailable", "Listing is not available")
	wrapped := fmt.Errorf("admission: %w", slot.WithCause(errors.New("serialization failure")))

	assert.ErrorIs(t, wrapped, slot)
	assert.NotErrorIs(t, wrapped, ConflictFailure("AlreadyPaid", "Payment already completed"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Contains(t, wrapped.Error(), "serialization failure")

	// Reasonless errors never match each other
	assert.NotErrorIs(t, InternalError("a", nil), InternalError("a", nil))
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", ValidationFailure("InvalidRange", "End date must be after start date"), http.StatusBadRequest, "End date must be after start date"},
		{"conflict", ConflictFailure("SlotUnavailable", "Taken"), http.StatusConflict, "Taken"},
		{"forbidden", ForbiddenFailure("Forbidden", "No"), http.StatusForbidden, "No"},
		{"not found", NotFoundFailure("BookingNotFound", "Booking not found"), http.StatusNotFound, "Booking not found"},
		{"signature", SignatureFailure("SignatureInvalid", "Bad signature"), http.StatusBadRequest, "Bad signature"},
		{"internal", InternalError("Failed to create booking", errors.New("db password=hunter2")), http.StatusInternalServerError, "Failed to create booking"},
		{"plain", errors.New("connection reset"), http.StatusInternalServerError, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewTestEngine()
			router.GET("/", func(c *gin.Context) { RespondError(c, tt.err) })

			resp := MakeTestRequest(t, router, TestRequest{Method: http.MethodGet, Path: "/"})
			AssertResponse(t, resp, tt.wantStatus, tt.wantMsg)
			assert.Equal(t, "error", resp.Body["status"])
			assert.NotContains(t, string(resp.Raw), "hunter2")
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"", 1, DefaultPaginationLimit, 0},
		{"?page=3&limit=20", 3, 20, 40},
		{"?page=0&limit=-5", 1, DefaultPaginationLimit, 0},
		{"?limit=1000", 1, MaxPaginationLimit, 0},
		{"?page=abc", 1, DefaultPaginationLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var p *Pagination
			router := NewTestEngine()
			router.GET("/", func(c *gin.Context) {
				p = NewPagination(c)
				c.Status(http.StatusNoContent)
			})
			MakeTestRequest(t, router, TestRequest{Method: http.MethodGet, Path: "/" + tt.query})

			require.NotNil(t, p)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}

	p := &Pagination{Page: 1, Limit: 10}
	p.SetTotal(21)
	assert.Equal(t, 3, p.LastPage)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "user@example.com", "secret")
	require.NoError(t, err)

	userID, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)

	_, err = ValidateToken("not.a.token", "secret")
	assert.Error(t, err)
}

func TestRequestIDMiddleware(t *testing.T) {
	router := NewTestEngine()
	router.Use(RequestIDMiddleware(), RecoveryMiddleware())
	router.GET("/ok", func(c *gin.Context) { Success(c, "ok", nil) })
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	resp := MakeTestRequest(t, router, TestRequest{Method: http.MethodGet, Path: "/ok", Headers: map[string]string{"X-Request-ID": "req-42"}})
	AssertResponse(t, resp, http.StatusOK, "ok")
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	resp = MakeTestRequest(t, router, TestRequest{Method: http.MethodGet, Path: "/panic"})
	AssertResponse(t, resp, http.StatusInternalServerError, "Internal server error")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
