package helper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type JWTClaims struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Role   string     `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token for a customer (role user) or the admin party
// (role admin, userID may be nil). expHours <= 0 means no expiry.
func GenerateJWT(secret string, expHours int, userID *uuid.UUID, role string) (string, error) {
	claims := JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   "LykkeLoopAPI",
		},
	}
	if expHours > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Duration(expHours) * time.Hour))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

func ParseJWT(secret, tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	switch claims.Role {
	case RoleAdmin:
	case RoleUser:
		if claims.UserID == nil {
			return nil, errors.New("user token without user_id")
		}
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return claims, nil
}

// PeekJWT decodes claims without checking the signature. Clients use it to
// learn their own identity from a token the server already issued.
func PeekJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Role == RoleUser && claims.UserID == nil {
		return nil, errors.New("user token without user_id")
	}
	return claims, nil
}
