package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want %q", cfg.Server.Environment, "development")
	}
	if cfg.OAuth2.AccessTokenLifespan != 900*time.Second {
		t.Errorf("OAuth2.AccessTokenLifespan = %v, want 900s", cfg.OAuth2.AccessTokenLifespan)
	}
	if cfg.OAuth2.RefreshTokenLifespan != 604800*time.Second {
		t.Errorf("OAuth2.RefreshTokenLifespan = %v, want 604800s", cfg.OAuth2.RefreshTokenLifespan)
	}
	if cfg.Cache.URL != "" {
		t.Errorf("Cache.URL = %q, want empty (selects the in-process cache)", cfg.Cache.URL)
	}
}

func TestLoadHonorsEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("TOKEN_EXPIRATION_TIME", "120")
	t.Setenv("CACHE_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_ALGORITHM", "HS256")

	cfg := Load()

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Environment != "production" {
		t.Errorf("Server.Environment = %q, want %q", cfg.Server.Environment, "production")
	}
	if cfg.OAuth2.AccessTokenLifespan != 120*time.Second {
		t.Errorf("OAuth2.AccessTokenLifespan = %v, want 120s", cfg.OAuth2.AccessTokenLifespan)
	}
	if cfg.Cache.URL != "redis://localhost:6379/0" {
		t.Errorf("Cache.URL = %q, want the overridden value", cfg.Cache.URL)
	}
	if cfg.OAuth2.JWTAlgorithm != "HS256" {
		t.Errorf("OAuth2.JWTAlgorithm = %q, want HS256", cfg.OAuth2.JWTAlgorithm)
	}
}

func TestLoadRejectsInvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080 when SERVER_PORT is invalid", cfg.Server.Port)
	}
}
