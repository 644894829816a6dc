package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/adapters/presence"
	"github.com/dkeye/Inkroom/internal/app"
	"github.com/dkeye/Inkroom/internal/auth"
	"github.com/dkeye/Inkroom/internal/config"
	"github.com/dkeye/Inkroom/internal/core"
)

// SetupRouter wires the HTTP and realtime surfaces.
func SetupRouter(ctx context.Context, cfg *config.Config, verifier *auth.TokenVerifier, registry *core.Registry, docs *app.DocumentService, inbox NotificationInbox, presenceCtl *presence.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	rooms := NewRoomsHandler(registry)
	documents := NewDocumentsHandler(docs)
	notifications := NewNotificationsHandler(inbox)

	userrooms := r.Group("/userrooms")
	userrooms.GET("/", rooms.listRooms)
	userrooms.GET("/:id", rooms.getRoom)

	document := r.Group("/document")
	document.GET("/connect/:uniqueId", func(c *gin.Context) {
		presenceCtl.HandleConnect(ctx, c)
	})

	authed := document.Group("", BearerAuth(verifier))
	authed.GET("/", documents.list)
	authed.GET("/mine", documents.listMine)
	authed.POST("/", documents.create)
	authed.PUT("/invitation", documents.handleInviteReply)
	authed.GET("/:uniqueId", documents.get)
	authed.PUT("/:uniqueId", documents.update)
	authed.DELETE("/:uniqueId", documents.remove)

	r.GET("/notifications", BearerAuth(verifier), notifications.listNotifications)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
