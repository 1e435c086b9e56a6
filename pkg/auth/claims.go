package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
)

// AccessTokenPayload is the identity material encoded into an access token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.MemberRole
	JTI    string
}

// AccessTokenClaims are the typed claims carried by every authenticated request.
// The core only ever consumes the actor id and role; everything else about the
// identity system lives outside this service.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"uid"`
	Role   enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
