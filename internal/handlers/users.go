package handlers

import (
	"errors"
	"net/http"

	"neurothrive/internal/repository"
	"neurothrive/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler serves the admin account management endpoints.
type UserHandler struct {
	log   *zap.Logger
	users *repository.UserRepository
}

func NewUserHandler(log *zap.Logger, users *repository.UserRepository) *UserHandler {
	return &UserHandler{log: log, users: users}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list users", zap.Error(err))
		respondError(c, http.StatusInternalServerError, MsgInternal)
		return
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, newUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

// SetActive activates or deactivates an account. A deactivated user's
// sessions are dropped on their next request.
func (h *UserHandler) SetActive(c *gin.Context) {
	id, ok := h.targetID(c)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	if err := h.users.SetActive(ctx, id, *req.IsActive); err != nil {
		h.fail(c, id, "Failed to update user status", err)
		return
	}
	user, err := h.users.GetUserByID(ctx, id)
	if err != nil {
		h.fail(c, id, "Failed to reload user", err)
		return
	}
	h.log.Info("User status changed", zap.Uint("userID", id), zap.Bool("active", user.IsActive),
		zap.Uint("by", session.Gate(c).Current().UserID))
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.targetID(c)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, id, "Failed to delete user", err)
		return
	}
	h.log.Info("User deleted", zap.Uint("userID", id), zap.Uint("by", session.Gate(c).Current().UserID))
	c.Status(http.StatusNoContent)
}

// targetID parses the :id parameter and refuses changes to the caller's own
// account.
func (h *UserHandler) targetID(c *gin.Context) (uint, bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return 0, false
	}
	if id == session.Gate(c).Current().UserID {
		respondError(c, http.StatusBadRequest, MsgSelfModification)
		return 0, false
	}
	return id, true
}

func (h *UserHandler) fail(c *gin.Context, id uint, msg string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, MsgUserNotFound)
		return
	}
	h.log.Error(msg, zap.Uint("userID", id), zap.Error(err))
	respondError(c, http.StatusInternalServerError, MsgInternal)
}
