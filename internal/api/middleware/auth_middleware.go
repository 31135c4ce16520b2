package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parking_manager/internal/domain"
	"parking_manager/internal/logger"
	"parking_manager/internal/service"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	// TokenQueryKey carries the token for clients that cannot set headers,
	// such as browser WebSocket connections.
	TokenQueryKey = "token"
	IdentityKey   = "identity"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (domain.Identity, error)
}

type AuthMiddleware struct {
	authService tokenValidator
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the bearer token and stores the caller's identity
// in the gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}

		identity, err := m.authService.ValidateToken(accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(AuthorizationHeaderKey)
	if authHeader == "" {
		token := c.Query(TokenQueryKey)
		return token, token != ""
	}
	fields := strings.Fields(authHeader)
	if len(fields) != 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
		return "", false
	}
	return fields[1], true
}

// AuthorizeRole lets the request through only when the caller has one of
// requiredRoles. It must run after Authenticate.
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			logger.Warning("AuthorizeRole: no identity in context, Authenticate must run first")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		for _, role := range requiredRoles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		logger.Debugf("AuthorizeRole: user %d with role %s denied (requires %v)", identity.UserID, identity.Role, requiredRoles)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied for this role"})
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}
