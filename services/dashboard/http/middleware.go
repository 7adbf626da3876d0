package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/backend"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/session"
)

const (
	ctxRequestID = "request_id"
	ctxViewID    = "view_id"
	ctxToken     = "token"
	ctxUser      = "user"

	headerRequestID = "X-Request-ID"
	viewCookieAge   = 12 * 60 * 60
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func zapLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			zap.L().Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			zap.L().Warn("request", fields...)
		default:
			zap.L().Info("request", fields...)
		}
	}
}

func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if origin != "*" {
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// viewMiddleware tags each browser tab session with a view id so the
// per-view filter state and espacio caches can be found again.
func (s *Server) viewMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(s.cfg.ViewCookieName)
		if err != nil || id == "" {
			id = uuid.NewString()
			s.setCookie(c, s.cfg.ViewCookieName, id, viewCookieAge)
		}
		c.Set(ctxViewID, id)
		c.Next()
	}
}

func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c, s.cfg.CookieName)

		ctx, cancel := s.requestContext(c)
		out := s.deps.Guard.Check(ctx, token)
		cancel()

		if out.State != session.Valid {
			s.rejectSession(c, out)
			return
		}

		if out.RotatedToken != "" {
			token = out.RotatedToken
			s.setCookie(c, s.cfg.CookieName, token, 0)
		}
		c.Set(ctxToken, token)
		c.Set(ctxUser, out.User)
		c.Next()
	}
}

// rejectSession clears the token when asked and sends the user to the
// outcome's redirect, or answers 401 when there is none.
func (s *Server) rejectSession(c *gin.Context, out session.Outcome) {
	if out.ClearToken {
		s.setCookie(c, s.cfg.CookieName, "", -1)
	}
	if out.Redirect != "" {
		c.Redirect(http.StatusFound, out.Redirect)
		c.Abort()
		return
	}
	c.AbortWithStatus(http.StatusUnauthorized)
}

// setCookie writes an HttpOnly cookie; production cookies are Secure and
// SameSite=Strict.
func (s *Server) setCookie(c *gin.Context, name, value string, maxAge int) {
	secure := s.cfg.Production()
	if secure {
		c.SetSameSite(http.SameSiteStrictMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(name, value, maxAge, "/", "", secure, true)
}

func requestToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func currentUser(c *gin.Context) backend.User {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(backend.User); ok {
			return u
		}
	}
	return backend.User{}
}
