package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

func TestAuthMiddleware_TokenRoundTrip(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	token, participantID, err := m.IssueToken("user-1", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, participantID)

	p, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, participantID, p.ParticipantID)
	assert.Equal(t, "Alice", p.DisplayName)
}

func TestAuthMiddleware_ParticipantIDsAreFresh(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	_, first, err := m.IssueToken("user-1", "Alice")
	require.NoError(t, err)
	_, second, err := m.IssueToken("user-1", "Alice")
	require.NoError(t, err)

	// Same user, two connections, two identities.
	assert.NotEqual(t, first, second)
}

func TestAuthMiddleware_Parse(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := NewAuthMiddleware("other-secret")
		token, _, err := other.IssueToken("user-1", "Alice")
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.Error(t, err)
	})

	t.Run("rejects an empty string", func(t *testing.T) {
		_, err := m.Parse("")
		assert.Error(t, err)
	})
}

func TestAuthMiddleware_Handler(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	var seen *model.Participant
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetParticipant(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("accepts a query token", func(t *testing.T) {
		seen = nil
		token, participantID, err := m.IssueToken("user-1", "Alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/ws?token="+token, nil)
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, participantID, seen.ParticipantID)
	})

	t.Run("accepts a bearer header", func(t *testing.T) {
		seen = nil
		token, _, err := m.IssueToken("user-1", "Alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/abc", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, seen)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/abc", nil)
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/abc?token=bogus", nil)
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})
}

func TestGetParticipant_WithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetParticipant(req.Context()))
}
