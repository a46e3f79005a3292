package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration int
		wantErr    string
	}{
		{name: "valid", secret: "test-secret-key", expiration: 24},
		{name: "one hour", secret: "s", expiration: 1},
		{name: "missing secret", secret: "", expiration: 24, wantErr: "JWT_SECRET"},
		{name: "zero expiration", secret: "s", expiration: 0, wantErr: "at least 1 hour"},
		{name: "negative expiration", secret: "s", expiration: -3, wantErr: "at least 1 hour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewJWTConfig(tt.secret, tt.expiration)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, cfg.Secret)
			assert.Equal(t, tt.expiration, cfg.ExpirationHours)
		})
	}
}

func TestConfig_JWT(t *testing.T) {
	cfg := Default()
	_, err := cfg.JWT()
	assert.Error(t, err, "no secret by default")

	cfg.Auth.JWTSecret = "secret"
	jwtCfg, err := cfg.JWT()
	require.NoError(t, err)
	assert.Equal(t, 24, jwtCfg.ExpirationHours)
}
