package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"chathub/internal/core/domain"
)

func newTestAuthenticator(identities *fakeIdentityRepo) *Authenticator {
	return NewAuthenticator(slog.Default(), "test-secret", "chathub-test", identities, time.Second)
}

func TestAuthenticator_Authenticate(t *testing.T) {
	ctx := context.Background()
	identities := newFakeIdentityRepo()
	identities.add("alice", "Alice")
	auth := newTestAuthenticator(identities)

	t.Run("valid token resolves the identity", func(t *testing.T) {
		token, err := auth.GenerateToken("alice", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		identity, err := auth.Authenticate(ctx, token)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if identity.ID != "alice" || identity.DisplayName != "Alice" {
			t.Errorf("identity = %+v, want alice", identity)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		if _, err := auth.Authenticate(ctx, ""); !errors.Is(err, domain.ErrMissingToken) {
			t.Errorf("err = %v, want ErrMissingToken", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := auth.Authenticate(ctx, "not.a.jwt"); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewAuthenticator(slog.Default(), "another-secret", "chathub-test", identities, time.Second)
		token, err := other.GenerateToken("alice", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if _, err := auth.Authenticate(ctx, token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := auth.GenerateToken("alice", -time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if _, err := auth.Authenticate(ctx, token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("unknown identity", func(t *testing.T) {
		token, err := auth.GenerateToken("ghost", time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if _, err := auth.Authenticate(ctx, token); !errors.Is(err, domain.ErrIdentityNotFound) {
			t.Errorf("err = %v, want ErrIdentityNotFound", err)
		}
	})
}
