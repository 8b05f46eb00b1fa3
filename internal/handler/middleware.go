package handler

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/auth"
	"github.com/fusaf/fusaf-service/pkg/response"
)

const claimsKey = "auth.claims"

// TokenParser is the part of *auth.Manager the middleware needs.
type TokenParser interface {
	Parse(token string) (auth.Claims, error)
}

// Guard builds per-route authorization middleware. A nil parser rejects every
// guarded route, so a misconfigured server fails closed.
type Guard struct {
	tokens TokenParser
}

func NewGuard(tokens TokenParser) Guard { return Guard{tokens: tokens} }

// Authenticated accepts any valid token.
func (g Guard) Authenticated() gin.HandlerFunc { return g.Require() }

// Require accepts a valid token whose role is one of roles; no roles means
// any role.
func (g Guard) Require(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := g.authenticate(c)
		if err != nil {
			response.WriteError(c, err)
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			response.WriteError(c, fmt.Errorf("%w: role %s", auth.ErrForbidden, claims.Role))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (g Guard) authenticate(c *gin.Context) (auth.Claims, error) {
	if g.tokens == nil {
		return auth.Claims{}, fmt.Errorf("%w: authentication is not configured", auth.ErrUnauthorized)
	}
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing bearer token", auth.ErrUnauthorized)
	}
	return g.tokens.Parse(strings.TrimSpace(token))
}

// claimsFrom returns the claims stored by Require.
func claimsFrom(c *gin.Context) (auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := v.(auth.Claims)
	return claims, ok
}

// RequestLogger logs one line per request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	l := logger.With().Str("module", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
