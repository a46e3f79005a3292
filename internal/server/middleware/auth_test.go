package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticValidator accepts a fixed set of tokens.
type staticValidator map[string]uuid.UUID

func (v staticValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}
	userID, ok := v[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims{userID: userID}, nil
}

type testClaims struct {
	userID uuid.UUID
}

func (c testClaims) GetUserID() uuid.UUID {
	return c.userID
}

func serve(t *testing.T, v TokenValidator, authHeader string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()
	var (
		called bool
		seen   uuid.UUID
	)
	handler := AuthMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		id, err := GetUserID(r)
		require.NoError(t, err)
		seen = id
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/chat/threads", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, seen, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	v := staticValidator{"good-token": userID}

	for _, header := range []string{"Bearer good-token", "bearer good-token", "BeArEr  good-token"} {
		t.Run(header, func(t *testing.T) {
			w, seen, called := serve(t, v, header)
			assert.True(t, called)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, userID, seen)
		})
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	v := staticValidator{"good-token": uuid.New(), "nil-user": uuid.Nil}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "missing Bearer prefix", header: "good-token"},
		{name: "only Bearer", header: "Bearer"},
		{name: "other scheme", header: "Basic good-token"},
		{name: "extra parts", header: "Bearer good-token extra"},
		{name: "unknown token", header: "Bearer not.a.valid.jwt"},
		{name: "nil user", header: "Bearer nil-user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, called := serve(t, v, tt.header)

			assert.False(t, called, "handler should not be called")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Unauthorized", body["error"])
		})
	}
}

func TestGetUserID(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name    string
		ctx     context.Context
		want    uuid.UUID
		wantErr bool
	}{
		{name: "present", ctx: WithUserID(context.Background(), userID), want: userID},
		{name: "missing", ctx: context.Background(), wantErr: true},
		{name: "wrong type", ctx: context.WithValue(context.Background(), UserIDKey(), "not-a-uuid"), wantErr: true},
		{name: "nil uuid", ctx: WithUserID(context.Background(), uuid.Nil), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tt.ctx)
			got, err := GetUserID(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoUser)
				assert.Equal(t, uuid.Nil, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
