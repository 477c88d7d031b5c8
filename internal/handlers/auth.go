package handlers

import (
	"errors"
	"net/http"
	"time"

	"neurothrive/internal/auth"
	"neurothrive/internal/config"
	"neurothrive/internal/metrics"
	"neurothrive/internal/models"
	"neurothrive/internal/repository"
	"neurothrive/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	log   *zap.Logger
	users *repository.UserRepository
	cfg   func() config.AuthConfig
}

func NewAuthHandler(log *zap.Logger, users *repository.UserRepository, cfg func() config.AuthConfig) *AuthHandler {
	return &AuthHandler{log: log, users: users, cfg: cfg}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required,notblank"`
	Password string `json:"password" binding:"required,password"`
	Role     string `json:"role" binding:"required,role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      auth.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("Rejected registration", zap.Error(err))
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Email, req.Password, req.FullName, role)
	if errors.Is(err, repository.ErrEmailTaken) {
		respondError(c, http.StatusConflict, auth.MsgEmailTaken)
		return
	}
	if err != nil {
		h.log.Error("Error creating user", zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}

	h.log.Info("User registered", zap.Uint("userID", user.ID), zap.String("role", string(user.Role)))
	h.signIn(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.log.Error("Error loading user for login", zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	if err != nil || !user.CheckPassword(req.Password) {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		respondError(c, http.StatusUnauthorized, auth.MsgInvalidCredentials)
		return
	}
	if !user.IsActive {
		metrics.LoginAttempts.WithLabelValues("deactivated").Inc()
		respondError(c, http.StatusForbidden, auth.MsgAccountDeactivated)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.signIn(c, http.StatusOK, user)
}

// signIn issues an access token, stores the session cookie and writes the
// token response.
func (h *AuthHandler) signIn(c *gin.Context, status int, user *models.User) {
	cfg := h.cfg()
	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, user.ID, user.Role, user.Email, user.FullName)
	if err != nil {
		h.log.Error("Failed to sign access token", zap.Uint("userID", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}

	gate := session.CookieGate(c)
	err = gate.Login(auth.SessionUser{
		Token:    token,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		UserID:   user.ID,
	})
	if err != nil {
		h.log.Error("Failed to save session", zap.Uint("userID", user.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}

	c.Header("HX-Trigger", "login")
	c.JSON(status, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        newUserResponse(user),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session.CookieGate(c).Logout()
	c.Header("HX-Trigger", "logout")
	c.Status(http.StatusNoContent)
}

// Me returns the signed-in identity without its token.
func (h *AuthHandler) Me(c *gin.Context) {
	gate := session.Gate(c)
	cur := *gate.Current()
	cur.Token = ""
	c.JSON(http.StatusOK, gin.H{
		"user":         cur,
		"defaultRoute": gate.DefaultRoute(),
	})
}

func (h *AuthHandler) CSRF(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": session.CSRFToken(c)})
}
