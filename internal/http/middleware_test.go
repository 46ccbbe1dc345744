package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKeyMiddleware_MintsCookieWhenAbsent(t *testing.T) {
	var seenKey string
	handler := SessionKeyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKey = getSessionKey(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	_, err := uuid.Parse(seenKey)
	require.NoError(t, err, "minted session key should be a uuid")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, seenKey, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionKeyMiddleware_ReusesExistingCookie(t *testing.T) {
	var seenKey string
	handler := SessionKeyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKey = getSessionKey(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "visitor-42"})
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "visitor-42", seenKey)
	assert.Empty(t, rec.Result().Cookies(), "existing sessions get no new cookie")
}
