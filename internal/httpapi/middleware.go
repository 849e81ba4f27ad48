package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/padelcana/courtbook/internal/identity"
)

const contextKeyIdentity = "caller_identity"

// authRequired verifies the bearer token and attaches the caller identity to
// the request context.
func authRequired(tokens *identity.TokenIssuer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthenticated", "missing bearer token"))
			return
		}
		callerIdentity, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthenticated", "invalid token"))
			return
		}
		ctx.Set(contextKeyIdentity, callerIdentity)
		ctx.Next()
	}
}

// requireRole restricts a route to the given roles.
func requireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(ctx *gin.Context) {
		callerIdentity, ok := callerIdentityFrom(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthenticated", "missing bearer token"))
			return
		}
		if _, permitted := allowed[callerIdentity.Role]; !permitted {
			ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse("forbidden", "insufficient role"))
			return
		}
		ctx.Next()
	}
}

// callerIdentityFrom extracts the verified identity attached by authRequired.
func callerIdentityFrom(ctx *gin.Context) (identity.Identity, bool) {
	value, exists := ctx.Get(contextKeyIdentity)
	if !exists {
		return identity.Identity{}, false
	}
	callerIdentity, ok := value.(identity.Identity)
	return callerIdentity, ok
}
