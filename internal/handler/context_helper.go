package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-ga/internal/middleware"
	"github.com/noah-isme/sma-timetable-ga/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-ga/pkg/errors"
)

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

// currentUserID returns the authenticated user, or an unauthorized error when the route
// was reached without JWT claims.
func currentUserID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return "", appErrors.ErrUnauthorized
	}
	return claims.UserID, nil
}
