package middlewares

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Luismorlan/eventmux/model"
	. "github.com/Luismorlan/eventmux/utils/log"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	actorKey     = "actor"
	subjectKey   = "sub"
	loggerKey    = "logger"
	RequestIDKey = "X-Request-Id"
)

// IdentityProvider verifies an access token and returns the subject it was
// issued for. The subject is the username of a registered user.
type IdentityProvider interface {
	Subject(ctx context.Context, token string) (string, error)
}

// CognitoIdentityProvider resolves access tokens issued by an AWS Cognito user
// pool. The client is thread safe.
type CognitoIdentityProvider struct {
	client *cognitoidentityprovider.Client
}

// NewCognitoIdentityProvider creates a client with the default aws config,
// located in ~/.aws/config or the environment.
func NewCognitoIdentityProvider(ctx context.Context) (*CognitoIdentityProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &CognitoIdentityProvider{client: cognitoidentityprovider.NewFromConfig(cfg)}, nil
}

func (p *CognitoIdentityProvider) Subject(ctx context.Context, token string) (string, error) {
	user, err := p.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{AccessToken: &token})
	if err != nil {
		return "", err
	}
	if user.Username == nil {
		return "", errors.New("cognito user has no username")
	}
	return *user.Username, nil
}

// JWTIdentityProvider issues and verifies HS256 tokens signed with a shared
// secret, for deployments without Cognito and for tests.
type JWTIdentityProvider struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTIdentityProvider(secret string, ttl time.Duration) (*JWTIdentityProvider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTIdentityProvider{secret: []byte(secret), ttl: ttl}, nil
}

// IssueToken signs a token for username valid for the provider's ttl.
func (p *JWTIdentityProvider) IssueToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *JWTIdentityProvider) Subject(ctx context.Context, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", jwt.ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// bearerToken reads the token from the Authorization header, or the "token"
// query parameter.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

// Authenticate resolves the request's actor. Requests without a token stay
// anonymous, an invalid or expired token is rejected with 401. A valid token
// whose subject has not registered yet is treated as anonymous so that it can
// still register.
func Authenticate(provider IdentityProvider, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		subject, err := provider.Subject(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, errors.Wrap(model.ErrUnauthenticated, err.Error()))
			return
		}
		c.Set(subjectKey, subject)

		var user model.User
		res := db.WithContext(c.Request.Context()).Where("username = ?", subject).Limit(1).Find(&user)
		if res.Error != nil {
			AbortWithError(c, errors.Wrap(res.Error, "cannot load actor"))
			return
		}
		if res.RowsAffected == 1 {
			c.Set(actorKey, &user)
			c.Set(loggerKey, RequestLogger(c).WithField("user_id", user.Id))
		} else {
			RequestLogger(c).WithField("subject", subject).Info("token subject is not registered")
		}
		c.Next()
	}
}

// RequireActor rejects anonymous requests with 401.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Actor(c) == nil {
			AbortWithError(c, errors.WithStack(model.ErrUnauthenticated))
			return
		}
		c.Next()
	}
}

// Subject returns the verified identity subject of the request, "" when no
// token was presented.
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

// Actor returns the authenticated user of the request, nil if anonymous.
func Actor(c *gin.Context) *model.User {
	if v, ok := c.Get(actorKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

// RequestID tags every request with an id, echoed in the response header and
// attached to the request's logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDKey)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(RequestIDKey, id)
		c.Set(loggerKey, Log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		}))
		c.Next()
	}
}

// RequestLogger returns the logger of the request, or the global one outside
// of RequestID.
func RequestLogger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return Log
}
