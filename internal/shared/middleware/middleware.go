package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/shared/utils/response"
	"eventhub/internal/users"
	"eventhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
	ContextRequestID = "request_id"
)

var ErrUnauthenticated = errors.New("user not authenticated")

// JWTAuth validates a Bearer access token signed with secret
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		claims, ok := parseAccessToken(parts[1], secret)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and never rejects
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, ok := parseAccessToken(parts[1], secret); ok {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func parseAccessToken(tokenString, secret string) (jwt.MapClaims, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "access" {
		return nil, false
	}
	return claims, true
}

func setClaims(c *gin.Context, claims jwt.MapClaims) {
	c.Set(ContextUserID, claims["user_id"])
	c.Set(ContextUserEmail, claims["email"])
	c.Set(ContextUserRole, claims["role"])
}

// RequireRoles middleware checks if user has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
			c.Abort()
			return
		}

		role, _ := userRole.(string)
		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(string(users.RoleAdmin))
}

// CurrentActor reads the authenticated caller set by JWTAuth
func CurrentActor(c *gin.Context) (users.Actor, error) {
	raw, exists := c.Get(ContextUserID)
	if !exists {
		return users.Actor{}, ErrUnauthenticated
	}
	idStr, _ := raw.(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return users.Actor{}, ErrUnauthenticated
	}

	role, _ := c.Get(ContextUserRole)
	roleStr, _ := role.(string)
	return users.Actor{ID: id, Role: users.Role(roleStr)}, nil
}

// RequestID tags each request with an id, reusing X-Request-ID when the caller sent one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequestLogger logs each request after it completes
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l := log
		if id := c.GetString(ContextRequestID); id != "" {
			l = l.WithRequestID(id)
		}
		l.LogHTTPRequest(c, time.Since(start))
	}
}
