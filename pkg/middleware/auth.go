package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"petstop/backend/pkg/jwt"
	"petstop/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Rejection reasons returned to clients
const (
	ReasonNoToken      = "No auth token provided"
	ReasonInvalidToken = "Invalid token"
)

const bearerPrefix = "Bearer "

// identityKey is the gin key holding the verified Identity
const identityKey = "identity"

// TokenVerifier verifies a raw token and returns its claims
type TokenVerifier interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Identity is the verified subject of one request
type Identity struct {
	UserID uint
}

// Result is the outcome of authorizing one request.
// Exactly one of Authorized or Reason is meaningful.
type Result struct {
	Authorized bool
	Identity   Identity
	Reason     string
	// Err is the verification failure behind an invalid token, for logging only
	Err error
}

func authorized(userID uint) Result {
	return Result{Authorized: true, Identity: Identity{UserID: userID}}
}

func rejected(reason string, err error) Result {
	return Result{Reason: reason, Err: err}
}

// Gate establishes request identity from a bearer token.
// It keeps no state between requests.
type Gate struct {
	verifier TokenVerifier
	log      *logger.Logger
}

// NewGate creates a Gate. A nil verifier is a wiring bug and panics.
func NewGate(verifier TokenVerifier, log *logger.Logger) *Gate {
	if verifier == nil {
		panic("middleware: auth gate needs a token verifier")
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Gate{verifier: verifier, log: log}
}

// Authorize checks an Authorization header value
func (g *Gate) Authorize(header string) Result {
	if !strings.HasPrefix(header, bearerPrefix) {
		return rejected(ReasonNoToken, nil)
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return rejected(ReasonNoToken, nil)
	}

	claims, err := g.verifier.ValidateToken(token)
	if err != nil {
		return rejected(ReasonInvalidToken, err)
	}
	if claims == nil || claims.UserID == 0 {
		return rejected(ReasonInvalidToken, jwt.ErrMissingSubject)
	}

	return authorized(claims.UserID)
}

// Middleware rejects requests without a valid token with 401 {"error": reason}
// and otherwise exposes the Identity through IdentityFrom.
// onReject, if set, runs after a rejection has been written.
func (g *Gate) Middleware(onReject func(c *gin.Context, r Result)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := g.Authorize(c.GetHeader("Authorization"))
		if !res.Authorized {
			args := []any{"reason", res.Reason, "path", c.Request.URL.Path}
			if res.Err != nil {
				args = append(args, "cause", res.Err.Error())
			}
			logger.FromGin(c).Warn("Request rejected by auth gate", args...)

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": res.Reason})
			if onReject != nil {
				onReject(c, res)
			}
			return
		}

		WithIdentity(c, res.Identity)
		c.Next()
	}
}

// WithIdentity attaches id to the gin context and the request context
func WithIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	ctx := context.WithValue(c.Request.Context(), UserIDKey, id)
	c.Request = c.Request.WithContext(ctx)

	if l, ok := c.Get(logger.ContextKey); ok {
		if reqLogger, ok := l.(*logger.Logger); ok {
			c.Set(logger.ContextKey, reqLogger.WithUserID(strconv.FormatUint(uint64(id.UserID), 10)))
		}
	}
}

// IdentityFrom returns the identity set by the auth gate
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// IdentityFromContext returns the identity stored in a request context
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(UserIDKey).(Identity)
	return id, ok
}
