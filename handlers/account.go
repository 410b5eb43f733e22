package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"experiencebylocals/middleware"
	"experiencebylocals/models"
	"experiencebylocals/services/user"
	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxProfileForm = 8 << 20

// AccountHandler serves the caller's account page and public host profiles.
type AccountHandler struct {
	Users user.UserService
}

func NewAccountHandler(users user.UserService) *AccountHandler {
	return &AccountHandler{Users: users}
}

func (h *AccountHandler) GetAccountHandler(c *gin.Context) {
	account, err := h.Users.Account(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		getLogger(c).Error("failed to load account", zap.Error(err))
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, account)
}

// UpdateAccountHandler applies a multipart profile update. Absent fields are
// left unchanged; profile_pic is optional.
func (h *AccountHandler) UpdateAccountHandler(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxProfileForm); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid profile form", err.Error())
		return
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll()

	update := models.ProfileUpdate{
		FirstName: formField(form, "first_name"),
		LastName:  formField(form, "last_name"),
		Bio:       formField(form, "bio"),
	}
	if files := form.File["profile_pic"]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "unreadable profile picture", err.Error())
			return
		}
		defer f.Close()
		update.Picture = &models.Upload{Filename: files[0].Filename, Content: f}
	}

	u, err := h.Users.UpdateProfile(c.Request.Context(), middleware.GetSession(c), update)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": u})
}

func (h *AccountHandler) GetUserHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.Users.GetHost(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

func formField(form *multipart.Form, key string) *string {
	v, ok := form.Value[key]
	if !ok || len(v) == 0 {
		return nil
	}
	s := strings.TrimSpace(v[0])
	return &s
}
