package auth

import "vfs/internal/domain/models"

// JWTVerifier verifies bearer tokens presented to the directory service.
type JWTVerifier interface {
	// VerifyToken validates a JWT and returns its claims.
	// Invalid, expired or wrongly signed tokens yield domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
