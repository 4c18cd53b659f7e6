package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/auth"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/logger"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTSubjectKey = "jwt_subject"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates an access token
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Validator TokenValidator
	// CookieName is consulted when there is no Authorization header
	CookieName string
	// QueryParam is consulted last, for media tags that cannot send headers
	QueryParam string
	Logger     *zap.Logger
}

// JWTAuth requires a valid access token.
// The token is read from the Bearer header, then the cookie, then the query parameter.
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := logger.OrNop(cfg.Logger)

	return func(c *gin.Context) {
		token, source := ExtractToken(c, cfg.CookieName, cfg.QueryParam)
		if token == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "missing credential")
			return
		}

		claims, err := cfg.Validator.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, log, err, "token validation failed")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTSubjectKey, claims.Subject)

		ctx, reqLogger := logger.WithSubject(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.Subject)
		c.Request = c.Request.WithContext(ctx)
		c.Set("logger", reqLogger)

		log.Debug("JWT authentication successful",
			zap.String("subject", claims.Subject),
			zap.String("source", source),
		)
		c.Next()
	}
}

// ExtractToken returns the first credential found and where it came from
func ExtractToken(c *gin.Context, cookieName, queryParam string) (string, string) {
	if header := c.GetHeader(AuthHeaderKey); strings.HasPrefix(header, BearerPrefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)); token != "" {
			return token, "header"
		}
	}
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token, "cookie"
		}
	}
	if queryParam != "" {
		if token := c.Query(queryParam); token != "" {
			return token, "query"
		}
	}
	return "", ""
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeUnauthorized
	text := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, text = dto.ErrCodeTokenExpired, "Token has expired"
	case message != "missing credential":
		code, text = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, text, c.GetString("request_id")))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}
