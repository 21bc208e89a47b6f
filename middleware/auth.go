package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tnpportal/portal/services"
	"github.com/tnpportal/portal/utils"
)

const (
	// ContextIdentityKey is the key used to store the verified identity in Gin context.
	ContextIdentityKey = "identity"
	// ContextTokenKey stores the raw bearer token inside Gin context.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request carries a valid bearer token for an active user.
func AuthRequired(verifier services.Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, "no token, authorization denied")
			ctx.Abort()
			return
		}

		identity, err := verifier.Verify(ctx.Request.Context(), token)
		if err != nil {
			var authErr *services.AuthError
			if errors.As(err, &authErr) {
				utils.Error(ctx, http.StatusUnauthorized, authErr.Reason)
			} else {
				utils.Sugar.Errorw("identity verification failed", "error", err)
				utils.Error(ctx, http.StatusInternalServerError, "server error in authentication")
			}
			ctx.Abort()
			return
		}

		ctx.Set(ContextIdentityKey, identity)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthRequired.
func CurrentIdentity(ctx *gin.Context) (services.Identity, bool) {
	v, exists := ctx.Get(ContextIdentityKey)
	if !exists {
		return services.Identity{}, false
	}
	identity, ok := v.(services.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
