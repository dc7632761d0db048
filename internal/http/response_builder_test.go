package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/cycles/3").
		Cookie(loginCookie("alice", false)).
		Body(map[string]int{"id": 3}).
		Write(rr)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "/cycles/3", rr.Header().Get("Location"))
	assert.Equal(t, "{\"id\":3}\n", rr.Body.String())
	assert.Len(t, rr.Result().Cookies(), 1)
}

func TestJSONResponseBuilderNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rr)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestJSONResponseBuilderMarshalFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, map[string]any{"ch": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rr.Body.String())
}

func TestTooManyRequestsError(t *testing.T) {
	rr := httptest.NewRecorder()
	TooManyRequestsError("12").Write(rr)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "12", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rr.Body.String())
}
