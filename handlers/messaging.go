package handlers

import (
	"net/http"

	"experiencebylocals/middleware"
	"experiencebylocals/services/user"
	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessagingHandler serves the chat contact list and DM bootstrap.
type MessagingHandler struct {
	Users user.UserService
}

func NewMessagingHandler(users user.UserService) *MessagingHandler {
	return &MessagingHandler{Users: users}
}

type dmRequest struct {
	UserID int `json:"user_id" binding:"required,min=1"`
}

func (h *MessagingHandler) ContactsHandler(c *gin.Context) {
	contacts, err := h.Users.Contacts(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		getLogger(c).Warn("failed to list chat contacts", zap.Error(err))
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"contacts": contacts})
}

func (h *MessagingHandler) StartDMHandler(c *gin.Context) {
	var req dmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "user_id is required", err.Error())
		return
	}
	uid, err := h.Users.StartDM(c.Request.Context(), middleware.GetSession(c), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"uid": uid})
}

// SyncChatHandler forces chat reconciliation and returns the chat credentials.
func (h *MessagingHandler) SyncChatHandler(c *gin.Context) {
	rec, err := h.Users.SyncChat(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		getLogger(c).Warn("chat sync failed", zap.Error(err))
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rec)
}
