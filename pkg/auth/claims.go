package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/arnaszs/servizas/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ClientID uuid.UUID
	Role     enums.ActorRole
	JTI      string
}

// AccessTokenClaims identifies the caller. Staff tokens may carry a nil
// client id.
type AccessTokenClaims struct {
	ClientID uuid.UUID       `json:"client_id"`
	Role     enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
