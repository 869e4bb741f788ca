package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/pkg/httpcontext"
	"github.com/taskforge/backend/pkg/security"
	"github.com/taskforge/backend/repository"
)

// SessionAuth resolves the bearer session token into an active user before
// the request reaches a handler. Decoding failures, unknown subjects and
// inactive accounts are rejected here; the resolved user id travels to
// handlers in the X-User-ID request header.
func SessionAuth(
	codec *security.TokenCodec,
	users repository.UserRepository,
	adapter *httpcontext.Adapter,
	logger *zap.Logger,
) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Never trust a client-supplied identity header.
			ctx.Request.Header.Del("X-User-ID")

			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx, fasthttp.StatusUnauthorized)
				return
			}

			claims, err := codec.DecodeSession(tokenString)
			if err != nil {
				logger.Warn("invalid session token", zap.Error(err))
				reject(ctx, fasthttp.StatusUnauthorized)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			user, err := users.GetByID(stdCtx, claims.UserID)
			cancel()
			if err != nil {
				if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
					logger.Error("failed to load user for session", zap.Error(err))
				}
				reject(ctx, fasthttp.StatusUnauthorized)
				return
			}
			if !user.CanLogin() {
				reject(ctx, fasthttp.StatusForbidden)
				return
			}

			ctx.Request.Header.Set("X-User-ID", user.ID)
			next(ctx)
		}
	}
}

func reject(ctx *fasthttp.RequestCtx, status int) {
	ctx.SetStatusCode(status)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
