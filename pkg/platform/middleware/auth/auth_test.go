package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dErrors "medplant/pkg/domain-errors"
	"medplant/pkg/requestcontext"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jwtService = NewJWTService("test-signing-key", "medplant-test")
	discard    = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func plant(id int64) *int64 { return &id }

func TestJWTService_IssueAndValidate(t *testing.T) {
	token, err := jwtService.Issue(Claims{Name: "alice", FullName: "Alice Moreau", Role: "clerk", PlantID: plant(1)}, time.Hour)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "Alice Moreau", claims.FullName)
	require.NotNil(t, claims.PlantID)
	assert.Equal(t, int64(1), *claims.PlantID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	expired, err := jwtService.Issue(Claims{Name: "alice"}, -time.Hour)
	require.NoError(t, err)

	foreign, err := NewJWTService("other-key", "medplant-test").Issue(Claims{Name: "alice"}, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewJWTService("test-signing-key", "elsewhere").Issue(Claims{Name: "alice"}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Name: "alice"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"garbage", "not-a-token", "invalid token"},
		{"expired", expired, "token has expired"},
		{"wrong key", foreign, "invalid token"},
		{"wrong issuer", wrongIssuer, "invalid token"},
		{"unsigned", none, "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwtService.ValidateToken(tt.token)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	resolve := func(_ context.Context, c *Claims) (requestcontext.Principal, error) {
		return requestcontext.Principal{ID: c.Subject, Name: c.Name, TenantID: c.PlantID}, nil
	}

	var seen requestcontext.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestcontext.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAuth(jwtService, resolve, discard)(next)

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token sets principal", func(t *testing.T) {
		token, err := jwtService.Issue(Claims{Name: "alice", PlantID: plant(7)}, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "alice", seen.Name)
		require.NotNil(t, seen.TenantID)
		assert.Equal(t, int64(7), *seen.TenantID)
	})

	t.Run("resolver failure is an internal error", func(t *testing.T) {
		failing := RequireAuth(jwtService, func(context.Context, *Claims) (requestcontext.Principal, error) {
			return requestcontext.Principal{}, errors.New("directory down")
		}, discard)(next)

		token, err := jwtService.Issue(Claims{Name: "alice"}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		failing.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "directory down")
	})
}
