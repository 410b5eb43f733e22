package handlers

import (
	"net/http"
	"strconv"

	"experiencebylocals/middleware"
	"experiencebylocals/utils"

	"github.com/gin-gonic/gin"
)

// respond relays backend cookies and writes body as JSON.
func respond(c *gin.Context, status int, body any) {
	middleware.RelayCookies(c)
	c.JSON(status, body)
}

// fail relays backend cookies and maps err onto an error response.
func fail(c *gin.Context, err error) {
	middleware.RelayCookies(c)
	utils.RespondError(c, err)
}

// paramID reads a positive integer path parameter.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid "+name, c.Param(name))
		return 0, false
	}
	return id, true
}
