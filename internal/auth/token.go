package auth

import (
	"fmt"
	"strings"
	"time"

	"bhss/domain/core"
	"bhss/internal/errors"
	"bhss/models"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "bhss"

// Claims is what a verified token says about its holder
type Claims struct {
	UserID    core.ID
	Role      models.Role
	Email     string
	ExpiresAt time.Time
}

// IsAdmin reports whether the token holder is an admin
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == models.RoleAdmin
}

// TokenIssuer signs and verifies HMAC session tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer; tokens expire after ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for user
func (i *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	if user == nil || user.ID.IsEmpty() {
		return "", time.Time{}, errors.InvalidInput("cannot issue a token without a user id")
	}
	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	claims := jwt.MapClaims{
		"iss":     issuer,
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign token")
	}
	return signed, expiresAt, nil
}

// Verify parses tokenString and returns its claims. Expired, tampered and
// malformed tokens yield UNAUTHORIZED.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, errors.Unauthorized("token expired")
		}
		return nil, errors.Unauthorized("invalid token")
	}
	if !token.Valid {
		return nil, errors.Unauthorized("invalid token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.Unauthorized("invalid token claims")
	}
	userID, _ := mc["user_id"].(string)
	role, _ := mc["role"].(string)
	email, _ := mc["email"].(string)
	exp, _ := mc["exp"].(float64)
	if userID == "" || !models.Role(role).Valid() {
		return nil, errors.Unauthorized("invalid token claims")
	}

	return &Claims{
		UserID:    core.ID(userID),
		Role:      models.Role(role),
		Email:     email,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header value
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.Unauthorized("authorization header missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
