// Package jwttoken issues and validates the stub backend's HS256 access tokens.
package jwttoken

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
	authmw "digibank/pkg/platform/middleware/auth"
)

// DefaultExpiry matches the backend's default access-token lifetime.
const DefaultExpiry = time.Hour

// Claims carries the user's email as the subject, like the backend does.
type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	expiresIn  time.Duration
}

func NewJWTService(signingKey string, issuer string, expiresIn time.Duration) *JWTService {
	if expiresIn <= 0 {
		expiresIn = DefaultExpiry
	}
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		expiresIn:  expiresIn,
	}
}

// ExpiresIn is the lifetime stamped into every issued token.
func (s *JWTService) ExpiresIn() time.Duration {
	return s.expiresIn
}

func (s *JWTService) GenerateAccessToken(userID id.UserID, email, role string, now time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UID:  userID.String(),
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Validator adapts the service to the auth middleware.
type Validator struct {
	service *JWTService
}

func NewValidator(service *JWTService) *Validator {
	return &Validator{service: service}
}

func (v *Validator) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	uid, err := strconv.ParseInt(claims.UID, 10, 64)
	if err != nil || uid <= 0 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &authmw.Claims{
		UserID: id.UserID(uid),
		Email:  claims.Subject,
		Role:   claims.Role,
	}, nil
}
