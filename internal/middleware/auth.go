// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const (
	ContextUserID      = "user_id"
	ContextEmail       = "email"
	ContextIsEmployee  = "is_employee"
	ContextIsSuperuser = "is_superuser"
)

// AuthRequired accepts a bearer token, falling back to the session cookie.
func AuthRequired(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		token, ok := extractToken(c, cookieName)
		if !ok {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextIsEmployee, claims.IsEmployee)
		c.Set(ContextIsSuperuser, claims.IsSuperuser)
		c.Next()
	}
}

// EmployeeRequired must run after AuthRequired. Superusers pass as well.
func EmployeeRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.GetBoolFromContext(c, ContextIsEmployee) && !utils.GetBoolFromContext(c, ContextIsSuperuser) {
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthEmployeeRequired))
			c.Abort()
			return
		}
		c.Next()
	}
}

func SuperuserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.GetBoolFromContext(c, ContextIsSuperuser) {
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthSuperuserRequired))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if cookieName == "" {
		return "", false
	}
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}
