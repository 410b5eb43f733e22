package handlers

import (
	"net/http"

	"experiencebylocals/middleware"
	"experiencebylocals/models"
	"experiencebylocals/services/user"
	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves session bootstrap, sign-in, sign-up and sign-out.
type AuthHandler struct {
	Users user.UserService
}

func NewAuthHandler(users user.UserService) *AuthHandler {
	return &AuthHandler{Users: users}
}

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GetSessionHandler returns the caller, or {"user": null} for guests.
func (h *AuthHandler) GetSessionHandler(c *gin.Context) {
	s := middleware.GetSession(c)
	respond(c, http.StatusOK, gin.H{"user": s.CurrentUser()})
}

func (h *AuthHandler) SignInHandler(c *gin.Context) {
	logger := getLogger(c)
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "username and password are required", err.Error())
		return
	}
	res, err := h.Users.SignIn(c.Request.Context(), middleware.GetSession(c), req.Username, req.Password)
	if err != nil {
		logger.Debug("sign in failed", zap.String("username", req.Username), zap.Error(err))
		fail(c, err)
		return
	}
	middleware.SetSession(c, res.Session)
	logger.Info("user signed in", zap.String("username", res.User.Username))
	respond(c, http.StatusOK, res)
}

func (h *AuthHandler) SignUpHandler(c *gin.Context) {
	logger := getLogger(c)
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid sign up form", err.Error())
		return
	}
	res, err := h.Users.SignUp(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		logger.Debug("sign up failed", zap.Error(err))
		fail(c, err)
		return
	}
	middleware.SetSession(c, res.Session)
	logger.Info("user signed up", zap.String("username", res.User.Username))
	respond(c, http.StatusCreated, res)
}

func (h *AuthHandler) OAuthHandler(c *gin.Context) {
	logger := getLogger(c)
	var req user.OAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "provider and token are required", err.Error())
		return
	}
	res, err := h.Users.OAuthSignIn(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		logger.Debug("oauth sign in failed", zap.String("provider", req.Provider), zap.Error(err))
		fail(c, err)
		return
	}
	middleware.SetSession(c, res.Session)
	respond(c, http.StatusOK, res)
}

func (h *AuthHandler) SignOutHandler(c *gin.Context) {
	if err := h.Users.SignOut(c.Request.Context(), middleware.GetSession(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "signed out"})
}
