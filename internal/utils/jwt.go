// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenIssuer = "storefront"

type JWTClaims struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	Firstname        string `json:"firstname"`
	Lastname         string `json:"lastname"`
	IsEmployee       bool   `json:"is_employee"`
	IsSuperuser      bool   `json:"is_superuser"`
	StripeCustomerID string `json:"stripe_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenSubject is the identity embedded in an access token.
type TokenSubject struct {
	UserID           uuid.UUID
	Email            string
	Firstname        string
	Lastname         string
	IsEmployee       bool
	IsSuperuser      bool
	StripeCustomerID string
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func GenerateJWT(subject TokenSubject, ttlMinutes int) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:           subject.UserID.String(),
		Email:            subject.Email,
		Firstname:        subject.Firstname,
		Lastname:         subject.Lastname,
		IsEmployee:       subject.IsEmployee,
		IsSuperuser:      subject.IsSuperuser,
		StripeCustomerID: subject.StripeCustomerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   subject.UserID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
