// Package auth implements the request authorization gate: bearer JWTs signed
// with the server's HMAC secret.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/drivepool/drivepool/internal/common"
)

// Claims carries the standard claims plus the calling subject.
type Claims struct {
	jwt.RegisteredClaims
	Subject string
}

// GenerateToken signs a token for subject, valid for validityDuration.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Subject: subject,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken checks the token's signature and validity window. It returns
// common.ErrInvalidToken for anything that should read as "unauthorized".
func VerifyToken(tokenString string, secretKey []byte) error {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return common.ErrInvalidToken
	}

	if !token.Valid {
		return common.ErrInvalidToken
	}

	return nil
}
