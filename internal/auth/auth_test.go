package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	s := NewService("secret")
	token, err := s.IssueToken("editor-1")
	require.NoError(t, err)

	subject, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "editor-1", subject)

	_, err = s.IssueToken("")
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestValidate_Rejects(t *testing.T) {
	s := NewService("secret")
	token, err := s.IssueToken("editor-1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewService("other").ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewService("secret")
		late.now = func() time.Time { return time.Now().Add(DefaultTTL + time.Hour) }
		_, err := late.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no subject", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := raw.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = s.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrNoSubject)
	})
}

func TestMiddleware(t *testing.T) {
	s := NewService("secret")
	token, err := s.IssueToken("editor-1")
	require.NoError(t, err)

	var seen string
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/scene/nodes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "editor-1", seen)
			} else {
				assert.Empty(t, seen)
			}
		})
	}
}
