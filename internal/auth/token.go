package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of the admin token. It carries nothing but an
// expiry: the token grants the single "admin" capability, so there is
// no identity to embed.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256-signed admin token valid for ttl.
//
// The result is the standard three-part compact form
// (base64url header.payload.signature, no padding), so the frontend
// can treat it as an opaque bearer string.
func GenerateToken(secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates an admin token: HMAC signing method, signature
// against our secret, and expiry. Any failure, whether malformed
// structure, bad signature, or an expired token, comes back as an
// error and the caller treats the token as absent.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			// Reject anything but HMAC before the signature check, so a
			// token claiming alg "none" or RSA never gets verified.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("token has no expiry")
	}
	return claims, nil
}
