package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ownerContextKey is where the middleware stores the authenticated
// owner identifier.
const ownerContextKey = "owner"

// Claims are the bearer-token claims for owner-scoped endpoints.
type Claims struct {
	Owner string `json:"owner"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the HMAC bearer token and stores the owner
// identity in the request context. Every /api/v1 route sits behind it;
// the resolve endpoint stays public.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Owner == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ownerContextKey, claims.Owner)
		c.Next()
	}
}

// OwnerFromContext returns the authenticated owner set by the
// middleware.
func OwnerFromContext(c *gin.Context) string {
	owner, _ := c.Get(ownerContextKey)
	s, _ := owner.(string)
	return s
}

// IssueToken signs a bearer token for an owner. Exposed for the CLI and
// tests; a production deployment issues tokens from its identity layer.
func IssueToken(secret, owner string, ttl time.Duration) (string, error) {
	claims := Claims{
		Owner: owner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
