package middleware

import (
	"net/http"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/logger"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireRole lets the request through when the token carries any of roles.
// An empty role list only requires authentication.
func RequireRole(log *zap.Logger, roles ...string) gin.HandlerFunc {
	log = logger.OrNop(log)

	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", c.GetString("request_id")))
			return
		}
		if len(roles) == 0 {
			c.Next()
			return
		}
		for _, role := range roles {
			if claims.HasRole(role) {
				c.Next()
				return
			}
		}

		log.Warn("Role check failed",
			zap.String("subject", claims.Subject),
			zap.String("role", claims.Role),
			zap.Strings("required_any", roles),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Insufficient role", c.GetString("request_id")))
	}
}
