package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vfs/internal/domain"
	"vfs/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// allowedAlgs guards against algorithm confusion.
var allowedAlgs = []string{"RS256", "ES256"}

// JWKSVerifier implements JWTVerifier against a remote JWKS endpoint.
type JWKSVerifier struct {
	keyfunc jwt.Keyfunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
// keyfunc caches the key set and refreshes it in the background.
func NewJWTVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return newVerifier(jwks.Keyfunc, logger), nil
}

func newVerifier(kf jwt.Keyfunc, logger *slog.Logger) *JWKSVerifier {
	return &JWKSVerifier{keyfunc: kf, logger: logger}
}

// VerifyToken validates a token and extracts its claims. Only tokens with
// a subject and the "authenticated" role are accepted.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc, jwt.WithValidMethods(allowedAlgs))
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, &domain.UnauthorizedError{Message: "invalid token"}
	}
	if !token.Valid {
		return nil, &domain.UnauthorizedError{Message: "invalid token"}
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, &domain.UnauthorizedError{Message: "token has no subject"}
	}

	if claims.Role != "authenticated" {
		v.logger.Debug("token has wrong role", "role", claims.Role, "user_id", claims.Subject)
		return nil, &domain.UnauthorizedError{Message: "token is not authenticated"}
	}

	return claims, nil
}

// Close is a no-op; keyfunc stops refreshing when its context ends.
func (v *JWKSVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
