package handlers

import (
	"net/http"

	"experiencebylocals/config"

	"github.com/gin-gonic/gin"
)

// PublicConfig is the browser-safe configuration the web client boots with.
type PublicConfig struct {
	GoogleMapsAPIKey string `json:"googleMapsApiKey"`
	GoogleClientID   string `json:"googleClientId"`
	AppleClientID    string `json:"appleClientId"`
	CometChat        struct {
		AppID   string `json:"appId"`
		Region  string `json:"region"`
		AuthKey string `json:"authKey"`
	} `json:"cometChat"`
	HostCodeRequired bool `json:"hostCodeRequired"`
}

// ConfigHandler serves PublicConfig.
func ConfigHandler(cfg config.Config) gin.HandlerFunc {
	var out PublicConfig
	out.GoogleMapsAPIKey = cfg.GoogleMapsAPIKey
	out.GoogleClientID = cfg.GoogleClientID
	out.AppleClientID = cfg.AppleClientID
	out.CometChat.AppID = cfg.CometChatAppID
	out.CometChat.Region = cfg.CometChatRegion
	out.CometChat.AuthKey = cfg.CometChatAuthKey
	out.HostCodeRequired = cfg.HostCodePhrase != ""
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, out)
	}
}
