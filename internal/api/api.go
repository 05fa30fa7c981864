package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	voiceHandler "voicedesk-server/internal/voiceassist/handler"
)

type API struct {
	router       *gin.RouterGroup
	voiceHandler voiceHandler.Handler
}

func New(router *gin.RouterGroup, voiceHandler voiceHandler.Handler) API {
	return API{
		router:       router,
		voiceHandler: voiceHandler,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	apiGroup := a.router.Group("/api")
	{
		voiceGroup := apiGroup.Group("/voice")
		voiceGroup.POST("/token", a.voiceHandler.HandleMintToken)
		voiceGroup.GET("/ws", a.voiceHandler.HandleVoiceSocket)
		voiceGroup.POST("/sessions/:connectionID/stop", a.voiceHandler.HandleStopSession)
		voiceGroup.PUT("/settings", a.voiceHandler.HandleUpdateSettings)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
