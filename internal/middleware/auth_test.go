package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskforge/backend/domain"
	"github.com/taskforge/backend/pkg/httpcontext"
	"github.com/taskforge/backend/pkg/security"
	"github.com/taskforge/backend/repository"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) Create(context.Context, *domain.User) error { return nil }

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsernameExcluding(context.Context, string, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateFields(context.Context, string, repository.UserPatch) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) MarkVerified(context.Context, string) error { return nil }
func (r *fakeUserRepo) Delete(context.Context, string) error       { return nil }

func newAuthFixture(t *testing.T) (*security.TokenCodec, *fakeUserRepo, func(fasthttp.RequestHandler) fasthttp.RequestHandler) {
	t.Helper()
	codec := security.NewTokenCodec(
		security.TokenConfig{Secret: "session-secret", TTL: time.Hour},
		security.TokenConfig{Secret: "verification-secret", TTL: 15 * time.Minute},
	)
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	mw := SessionAuth(codec, repo, httpcontext.NewAdapter(time.Second), zap.NewNop())
	return codec, repo, mw
}

func runRequest(mw func(fasthttp.RequestHandler) fasthttp.RequestHandler, authHeader string, extra map[string]string) (*fasthttp.RequestCtx, bool, string) {
	var (
		reached    bool
		seenUserID string
	)
	handler := mw(func(ctx *fasthttp.RequestCtx) {
		reached = true
		seenUserID = string(ctx.Request.Header.Peek("X-User-ID"))
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/tasks")
	if authHeader != "" {
		ctx.Request.Header.Set("Authorization", authHeader)
	}
	for k, v := range extra {
		ctx.Request.Header.Set(k, v)
	}
	handler(ctx)
	return ctx, reached, seenUserID
}

func TestSessionAuth_ValidTokenSetsIdentity(t *testing.T) {
	codec, repo, mw := newAuthFixture(t)
	repo.users["user-1"] = &domain.User{ID: "user-1", Email: "a@x.com", IsActive: true}

	token, err := codec.IssueSession("user-1", "a@x.com")
	require.NoError(t, err)

	ctx, reached, userID := runRequest(mw, "Bearer "+token, nil)
	assert.True(t, reached)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestSessionAuth_MissingToken(t *testing.T) {
	_, _, mw := newAuthFixture(t)

	ctx, reached, _ := runRequest(mw, "", nil)
	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestSessionAuth_MalformedToken(t *testing.T) {
	_, _, mw := newAuthFixture(t)

	ctx, reached, _ := runRequest(mw, "Bearer not.a.jwt", nil)
	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestSessionAuth_UnknownSubject(t *testing.T) {
	codec, _, mw := newAuthFixture(t)

	token, err := codec.IssueSession("ghost", "a@x.com")
	require.NoError(t, err)

	ctx, reached, _ := runRequest(mw, "Bearer "+token, nil)
	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestSessionAuth_InactiveAccount(t *testing.T) {
	codec, repo, mw := newAuthFixture(t)
	repo.users["user-1"] = &domain.User{ID: "user-1", Email: "a@x.com", IsActive: false}

	token, err := codec.IssueSession("user-1", "a@x.com")
	require.NoError(t, err)

	ctx, reached, _ := runRequest(mw, "Bearer "+token, nil)
	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
}

func TestSessionAuth_StripsSpoofedIdentityHeader(t *testing.T) {
	_, _, mw := newAuthFixture(t)

	// No token at all: the forged header must not survive to a handler.
	ctx, reached, _ := runRequest(mw, "", map[string]string{"X-User-ID": "victim"})
	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestSessionAuth_SpoofedHeaderReplacedByTokenIdentity(t *testing.T) {
	codec, repo, mw := newAuthFixture(t)
	repo.users["user-1"] = &domain.User{ID: "user-1", Email: "a@x.com", IsActive: true}

	token, err := codec.IssueSession("user-1", "a@x.com")
	require.NoError(t, err)

	_, reached, userID := runRequest(mw, "Bearer "+token, map[string]string{"X-User-ID": "victim"})
	assert.True(t, reached)
	assert.Equal(t, "user-1", userID)
}
