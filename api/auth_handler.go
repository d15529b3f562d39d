package api

import (
	"net/http"

	"auctionhouse/models"
	"auctionhouse/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth  service.AuthService
	users service.UserService
}

func NewAuthHandler(auth service.AuthService, users service.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// Register handles POST /users
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "Register", err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, "Register", err)
		return
	}

	JSONResponse(c, http.StatusCreated, RegisterResponse{ID: user.ID, Username: user.Username}, "user registered")
}

// Login handles POST /sessions
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "Login", err)
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, "Login", err)
		return
	}

	JSONResponse(c, http.StatusOK, newTokenResponse(tokens), "logged in")
}

// Refresh handles POST /tokens
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "Refresh", err)
		return
	}

	tokens, err := h.auth.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, "Refresh", err)
		return
	}

	JSONResponse(c, http.StatusOK, newTokenResponse(tokens), "tokens refreshed")
}

// ChangePassword handles POST /users/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, "ChangePassword", err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), actingUser(c), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, "ChangePassword", err)
		return
	}

	JSONResponse(c, http.StatusOK, nil, "password updated")
}

func newTokenResponse(tokens *models.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
	}
}

// Profile handles GET /users/me
func (h *AuthHandler) Profile(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), actingUser(c))
	if err != nil {
		respondError(c, "Profile", err)
		return
	}

	JSONResponse(c, http.StatusOK, profile, "profile retrieved")
}
