package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AuthContextKey = "user_id"
)

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator accepts HS256 bearer tokens signed with a shared secret or
// one of a fixed set of API keys
type Authenticator struct {
	secret  []byte
	apiKeys []string
}

// NewAuthenticator creates an authenticator. An empty secret disables JWT.
func NewAuthenticator(secret string, apiKeys []string) *Authenticator {
	return &Authenticator{secret: []byte(secret), apiKeys: apiKeys}
}

// Middleware rejects requests carrying neither a valid bearer token nor a
// known X-API-Key
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				AbortWithError(c, http.StatusUnauthorized, "Unauthorized", "Invalid authorization format")
				return
			}

			claims, err := a.ParseToken(parts[1])
			if err != nil {
				AbortWithError(c, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
				return
			}

			c.Set(AuthContextKey, claims.UserID)
			c.Next()
			return
		}

		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			if !a.validAPIKey(apiKey) {
				AbortWithError(c, http.StatusUnauthorized, "Unauthorized", "Invalid API key")
				return
			}
			c.Set(AuthContextKey, "apikey:"+keyID(apiKey))
			c.Next()
			return
		}

		AbortWithError(c, http.StatusUnauthorized, "Unauthorized", "Authorization header or API key required")
	}
}

// ParseToken validates a signed token and returns its claims
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("jwt authentication disabled")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// GenerateToken generates a JWT token for a user
func (a *Authenticator) GenerateToken(userID, email string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Authenticator) validAPIKey(key string) bool {
	for _, k := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// keyID is a short non-secret label for an API key
func keyID(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// GetUserID retrieves the user ID from the context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(AuthContextKey)
	if !exists {
		return "", false
	}

	userIDStr, ok := userID.(string)
	return userIDStr, ok
}
