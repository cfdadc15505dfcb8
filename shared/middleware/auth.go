package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const usernameKey = "username"

// IdentityConfig selects how the caller's username is resolved. When
// JWTSecret is set a Bearer token is required and its username claim wins;
// otherwise the upstream gateway's Header is trusted as-is.
type IdentityConfig struct {
	Header    string
	JWTSecret string
}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IdentityMiddleware stores the authenticated username in the request
// context. Requests without one are rejected with 401.
func IdentityMiddleware(cfg IdentityConfig) gin.HandlerFunc {
	header := cfg.Header
	if header == "" {
		header = "X-Username"
	}
	secret := []byte(cfg.JWTSecret)

	return func(c *gin.Context) {
		var username string
		if len(secret) > 0 {
			var ok bool
			username, ok = usernameFromToken(c, secret)
			if !ok {
				return
			}
		} else {
			username = strings.TrimSpace(c.GetHeader(header))
			if username == "" {
				RespondWithError(c, http.StatusUnauthorized, header+" header required")
				c.Abort()
				return
			}
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

func usernameFromToken(c *gin.Context, secret []byte) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
		c.Abort()
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
		c.Abort()
		return "", false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
		c.Abort()
		return "", false
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	if username == "" {
		RespondWithError(c, http.StatusUnauthorized, "Token carries no username")
		c.Abort()
		return "", false
	}
	return username, true
}

func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(usernameKey)
	if !exists {
		return "", false
	}
	s, ok := username.(string)
	return s, ok && s != ""
}
