package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskforge/backend/api/transport"
	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/internal/ratelimit"
	"github.com/taskforge/backend/pkg/httpcontext"
	identityUC "github.com/taskforge/backend/usecase/identity"
)

type AuthHandler struct {
	baseHandler
	uc      *identityUC.UseCase
	limiter *ratelimit.Limiter
}

func NewAuthHandler(uc *identityUC.UseCase, limiter *ratelimit.Limiter, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		limiter:     limiter,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondValidation(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, identityUC.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, user)
}

// @Summary Exchange credentials for a session token
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondValidation(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if !h.allow(ctx, "login", req.Email) {
		return
	}

	token, user, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewSession(token, user))
}

// @Summary Verify an email address
// @Tags auth
// @Router /api/v1/auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(ctx *fasthttp.RequestCtx) {
	token := string(ctx.QueryArgs().Peek("token"))
	if token == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing token", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.VerifyEmail(stdCtx, token); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "email verified"})
}

// @Summary Resend the verification email
// @Tags auth
// @Router /api/v1/auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(ctx *fasthttp.RequestCtx) {
	var req transport.ResendVerificationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondValidation(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if !h.allow(ctx, "resend", req.Email) {
		return
	}

	if err := h.uc.ResendVerification(stdCtx, req.Email); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "verification email sent"})
}

func (h *AuthHandler) allow(ctx *fasthttp.RequestCtx, action, email string) bool {
	if h.limiter == nil {
		return true
	}

	key := fmt.Sprintf("%s:%s:%s", action, clientIP(ctx), email)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if !h.limiter.Allow(stdCtx, key) {
		h.respondJSON(ctx, http.StatusTooManyRequests, transport.NewError("RATE_LIMITED", "too many attempts, try again later", nil))
		return false
	}
	return true
}

func clientIP(ctx *fasthttp.RequestCtx) string {
	if addr := ctx.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
