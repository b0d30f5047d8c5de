package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/capstone-api/internal/middleware"
	"github.com/noah-isme/capstone-api/internal/models"
)

// claimsFromContext extracts the authenticated JWT claims set by the JWT
// middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
