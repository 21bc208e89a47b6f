package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tnpportal/portal/middleware"
	"github.com/tnpportal/portal/services"
	"github.com/tnpportal/portal/utils"
)

// TokenRevoker invalidates a bearer token before it expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// AuthController exposes the verified identity and logout.
type AuthController struct {
	revoker TokenRevoker
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(revoker TokenRevoker) *AuthController {
	return &AuthController{revoker: revoker}
}

// Me returns the identity behind the bearer token.
func (a *AuthController) Me(ctx *gin.Context) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "authentication required")
		return
	}
	utils.Success(ctx, http.StatusOK, "", identity)
}

// Logout revokes the bearer token used for this request.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if err := a.revoker.Revoke(ctx.Request.Context(), token); err != nil {
		respondError(ctx, err, "server error while logging out")
		return
	}
	utils.Success(ctx, http.StatusOK, "logged out", nil)
}

var _ TokenRevoker = (*services.TokenVerifier)(nil)
