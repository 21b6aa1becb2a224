package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/appointly/scheduler/internal/config"
)

const (
	ContextUserID     = "userID"
	ContextUserRole   = "userRole"
	ContextCustomerID = "customerID"
	ContextProviderID = "providerID"
)

const (
	RoleAdmin    = "admin"
	RoleProvider = "provider"
	RoleCustomer = "customer"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_authorization_header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_authorization_header"})
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {

			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token_claims"})
			return
		}

		userID, ok := claims["sub"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token_payload"})
			return
		}
		role, _ := claims["role"].(string)

		c.Set(ContextUserID, uint(userID))
		c.Set(ContextUserRole, role)

		if customerID, ok := claims["customerId"].(float64); ok {
			c.Set(ContextCustomerID, uint(customerID))
		}
		if providerID, ok := claims["providerId"].(float64); ok {
			c.Set(ContextProviderID, uint(providerID))
		}

		c.Next()
	}
}

// RequireStaff rejects customer tokens; admin and provider roles pass.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if role != RoleAdmin && role != RoleProvider {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequesterCustomerID returns the customer id bound to the token, or nil for
// staff requesters.
func RequesterCustomerID(c *gin.Context) *uint {
	if c.GetString(ContextUserRole) != RoleCustomer {
		return nil
	}
	if v, ok := c.Get(ContextCustomerID); ok {
		if id, ok := v.(uint); ok {
			return &id
		}
	}
	return nil
}
