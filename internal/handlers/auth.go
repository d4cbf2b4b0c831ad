package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/medlabs/critalert/internal/auth"
	"github.com/medlabs/critalert/internal/directory"
	"github.com/medlabs/critalert/internal/middleware"
	"github.com/medlabs/critalert/pkg/errors"
	"github.com/medlabs/critalert/pkg/metrics"
	"github.com/medlabs/critalert/pkg/response"
)

// AuthHandler manages login, token refresh, and the current-user endpoint.
type AuthHandler struct {
	authenticator *iauth.Authenticator
	jwt           *iauth.JWTService
	dir           directory.UserDirectory
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authenticator *iauth.Authenticator, jwt *iauth.JWTService, dir directory.UserDirectory) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, jwt: jwt, dir: dir}
}

type loginRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(req.UserID), req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	pair, err := h.jwt.GeneratePair(user)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user": gin.H{
			"id":   user.ID,
			"role": user.Role,
			"name": user.Name,
		},
	})
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	claims, err := h.jwt.ValidateRefreshToken(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	// Re-resolve the user so revoked accounts and role changes take effect
	// on refresh even though tokens are stateless.
	user, ok := h.dir.Lookup(claims.UserID)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	access, err := h.jwt.GenerateAccessToken(user)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"access_token": access})
}

// GET /api/auth/user
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	v, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	claims, ok := v.(*iauth.Claims)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":   claims.UserID,
		"role": claims.Role,
		"name": claims.Name,
	})
}
