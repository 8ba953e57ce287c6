package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/barter-backend/internal/authz"
	"github.com/shinyyama/barter-backend/internal/model"
	"github.com/shinyyama/barter-backend/internal/repository"
	"github.com/shinyyama/barter-backend/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const actorKey = "actor"

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier turns a bearer token into the local user it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.User, error)
}

// FirebaseVerifier checks Firebase ID tokens and provisions the local user on
// first sight.
type FirebaseVerifier struct {
	authClient *auth.Client
	users      service.UserService
}

func NewFirebaseVerifier(ctx context.Context, projectID string, users service.UserService) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{authClient: client, users: users}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, tokenStr string) (*model.User, error) {
	token, err := v.authClient.VerifyIDToken(ctx, tokenStr)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return v.users.ResolveFirebase(ctx, IdentityFromClaims(token.UID, token.Claims))
}

// IdentityFromClaims reads the profile claims of a verified Firebase token.
func IdentityFromClaims(uid string, claims map[string]interface{}) service.FirebaseIdentity {
	id := service.FirebaseIdentity{UID: uid}
	id.Email, _ = claims["email"].(string)
	id.EmailVerified, _ = claims["email_verified"].(bool)
	id.Name, _ = claims["name"].(string)
	return id
}

// JWTVerifier accepts HS256 tokens whose subject is a local user id.
type JWTVerifier struct {
	secret []byte
	users  repository.UserRepository
}

func NewJWTVerifier(secret string, users repository.UserRepository) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return &JWTVerifier{secret: []byte(secret), users: users}, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenStr string) (*model.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidToken
	}
	u, err := v.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

type AuthMiddleware struct {
	verifier TokenVerifier
	log      *zap.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, log: log}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved actor on the context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "missing bearer token"))
		}
		return m.authenticate(c, tokenStr, next)
	}
}

// OptionalAuth resolves the actor when a token is present and lets anonymous
// requests through.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return next(c)
		}
		return m.authenticate(c, tokenStr, next)
	}
}

func (m *AuthMiddleware) authenticate(c echo.Context, tokenStr string, next echo.HandlerFunc) error {
	u, err := m.verifier.Verify(c.Request().Context(), tokenStr)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, service.ErrUnauthenticated) {
			return c.JSON(http.StatusUnauthorized, errorBody("invalid_token", "token is invalid or expired"))
		}
		m.log.Error("resolve token user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
	c.Set(actorKey, authz.Actor{UserID: u.ID, IsAdmin: u.IsAdmin})
	return next(c)
}

// ActorFrom returns the actor stored by the auth middleware, or the anonymous
// actor.
func ActorFrom(c echo.Context) authz.Actor {
	if a, ok := c.Get(actorKey).(authz.Actor); ok {
		return a
	}
	return authz.Actor{}
}

func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func errorBody(code, msg string) map[string]map[string]string {
	return map[string]map[string]string{"error": {"code": code, "message": msg}}
}
