package auth

import (
	authmw "compliance/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims narrows token claims to what the HTTP middleware needs.
func ToMiddlewareClaims(claims *Claims) *authmw.JWTClaims {
	return &authmw.JWTClaims{
		OperatorID: claims.OperatorID,
		APIVersion: claims.Version,
		JTI:        claims.ID,
	}
}

// MiddlewareAdapter lets a JWTService satisfy authmw.JWTValidator.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
