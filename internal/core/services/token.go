package services

import (
	"chathub/internal/core/domain"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator admits connections: it verifies a presented token and
// resolves it to a stable identity before the hub sees the connection.
// It never mutates presence state; a rejection leaves nothing behind.
type Authenticator struct {
	secretKey  []byte
	issuer     string
	identities domain.IdentityRepository
	timeout    time.Duration
	log        *slog.Logger
}

func NewAuthenticator(
	log *slog.Logger,
	secret string,
	issuer string,
	identities domain.IdentityRepository,
	timeout time.Duration,
) *Authenticator {
	return &Authenticator{
		log:        log,
		secretKey:  []byte(secret),
		issuer:     issuer,
		identities: identities,
		timeout:    timeout,
	}
}

// GenerateToken mints an HS256 token for the given identity id. The hub
// itself only verifies tokens; this is used by tests and provisioning
// tooling.
func (a *Authenticator) GenerateToken(identityID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": identityID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
		"iss": a.issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secretKey)
}

// Authenticate verifies the token and resolves the subject against the
// identity store within the configured timeout. The three rejection
// reasons are distinct: missing token, unverifiable token, unknown
// identity.
func (a *Authenticator) Authenticate(ctx context.Context, tokenStr string) (*domain.Identity, error) {
	if tokenStr == "" {
		return nil, domain.ErrMissingToken
	}
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, domain.ErrInvalidToken
	}

	resolveCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	identity, err := a.identities.GetIdentity(resolveCtx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			a.log.WarnContext(ctx, "auth - identity not in store", "identity_id", sub)
			return nil, domain.ErrIdentityNotFound
		}
		a.log.ErrorContext(ctx, "auth - identity lookup failed", "identity_id", sub, "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return identity, nil
}
