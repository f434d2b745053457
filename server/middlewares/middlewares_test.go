package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Luismorlan/eventmux/model"
	"github.com/Luismorlan/eventmux/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTIdentityProvider(t *testing.T) {
	ctx := context.Background()
	provider, err := NewJWTIdentityProvider("secret", time.Hour)
	require.Nil(t, err)

	token, err := provider.IssueToken("alice")
	require.Nil(t, err)
	subject, err := provider.Subject(ctx, token)
	require.Nil(t, err)
	assert.Equal(t, "alice", subject)

	other, err := NewJWTIdentityProvider("other secret", time.Hour)
	require.Nil(t, err)
	_, err = other.Subject(ctx, token)
	assert.NotNil(t, err)

	expired, err := NewJWTIdentityProvider("secret", -time.Minute)
	require.Nil(t, err)
	token, err = expired.IssueToken("alice")
	require.Nil(t, err)
	_, err = provider.Subject(ctx, token)
	assert.NotNil(t, err)

	// Tokens signed with another algorithm are refused.
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.Nil(t, err)
	_, err = provider.Subject(ctx, none)
	assert.NotNil(t, err)

	_, err = NewJWTIdentityProvider("", time.Hour)
	assert.NotNil(t, err)
}

func newAuthRouter(t *testing.T, provider IdentityProvider) *gin.Engine {
	db, _ := utils.CreateTempDB(t)
	utils.TestCreateUser(t, db, "alice")

	router := gin.New()
	router.Use(RequestID(), Authenticate(provider, db))
	router.GET("/whoami", func(c *gin.Context) {
		if actor := Actor(c); actor != nil {
			c.String(http.StatusOK, actor.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	router.GET("/private", RequireActor(), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c).Username)
	})
	return router
}

func TestAuthenticate(t *testing.T) {
	provider, err := NewJWTIdentityProvider("secret", time.Hour)
	require.Nil(t, err)
	router := newAuthRouter(t, provider)
	alice, err := provider.IssueToken("alice")
	require.Nil(t, err)
	stranger, err := provider.IssueToken("stranger")
	require.Nil(t, err)

	for _, tc := range []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"no token", "/whoami", "", http.StatusOK, "anonymous"},
		{"bearer header", "/whoami", "Bearer " + alice, http.StatusOK, "alice"},
		{"query token", "/whoami?token=" + alice, "", http.StatusOK, "alice"},
		{"unregistered subject", "/whoami", "Bearer " + stranger, http.StatusOK, "anonymous"},
		{"invalid token", "/whoami", "Bearer garbage", http.StatusUnauthorized, ""},
		{"private anonymous", "/private", "", http.StatusUnauthorized, ""},
		{"private authenticated", "/private", "Bearer " + alice, http.StatusOK, "alice"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDKey))
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, tc.wantBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), ErrorTokenAuthFail)
			}
		})
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "fixed-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDKey))
}

func TestStatusFor(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
		code   string
	}{
		{model.NewValidationError("name", "too long"), http.StatusBadRequest, ErrorValidation},
		{errors.Wrap(model.ErrAlreadyExists, "like"), http.StatusBadRequest, ErrorAlreadyExists},
		{model.ErrInvalidSelfReference, http.StatusBadRequest, ErrorInvalidSelfReference},
		{model.ErrUnauthenticated, http.StatusUnauthorized, ErrorTokenAuthFail},
		{errors.Wrap(model.ErrForbidden, "event 1"), http.StatusForbidden, ErrorForbidden},
		{errors.Wrap(model.ErrNotFound, "event 1"), http.StatusNotFound, ErrorNotFound},
		{errors.New("boom"), http.StatusInternalServerError, ErrorInternal},
	} {
		status, code := StatusFor(tc.err)
		assert.Equal(t, tc.status, status, "%v", tc.err)
		assert.Equal(t, tc.code, code, "%v", tc.err)
	}
}
