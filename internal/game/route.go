package game

import (
	"github.com/gin-gonic/gin"

	"github.com/WalSacramento/contexto-live/internal/identity"
)

func RegisterRoutes(engine *gin.Engine, h *Handler, tokens *identity.TokenManager) {
	rooms := engine.Group("/rooms")
	rooms.POST("", h.CreateRoomHandler)
	rooms.POST("/:roomid/join", h.JoinRoomHandler)
	rooms.GET("/:roomid", h.SnapshotHandler)

	authed := rooms.Group("", tokens.RequireUser())
	authed.POST("/:roomid/start", h.StartGameHandler)
	authed.POST("/:roomid/guess", h.SubmitGuessHandler)
	authed.POST("/:roomid/rematch", h.RematchHandler)

	engine.GET("/stats", h.StatsHandler)
}
