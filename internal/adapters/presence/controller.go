// Package presence is the websocket adapter for the room presence/team
// protocol. It authorizes a connection, admits it into its room, then pumps
// presence commands to the team state machine and editing frames to the
// CRDT engine.
package presence

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/auth"
	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
	"github.com/dkeye/Inkroom/internal/team"
)

// CloseUnauthorized is the close code sent when authorization fails; the
// socket is never left open.
const CloseUnauthorized = 4001

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	authorizer *auth.Authorizer
	registry   *core.Registry
	teams      *team.Service
	engine     Engine

	readLimit    int64
	pingPeriod   time.Duration
	writeTimeout time.Duration
}

// Engine mirrors session.Engine locally so the adapter does not import the
// lifecycle package.
type Engine interface {
	HandleUpdate(ctx context.Context, docID domain.DocumentID, editor domain.UserID, update []byte) error
}

type Options struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	WriteTimeout time.Duration
}

func NewController(authorizer *auth.Authorizer, registry *core.Registry, teams *team.Service, engine Engine, opts Options) *Controller {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32768
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Controller{
		authorizer:   authorizer,
		registry:     registry,
		teams:        teams,
		engine:       engine,
		readLimit:    opts.ReadLimit,
		pingPeriod:   opts.PingPeriod,
		writeTimeout: opts.WriteTimeout,
	}
}

// HandleConnect is the realtime endpoint for one document. The bearer
// credential rides the query string; a failed authorization closes the
// socket with CloseUnauthorized and affects nothing else.
func (ctl *Controller) HandleConnect(ctx context.Context, c *gin.Context) {
	docID := domain.DocumentID(c.Param("uniqueId"))
	credential := c.Query("token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "presence").Msg("ws upgrade")
		return
	}
	conn := newWSConn(ws)

	identity, err := ctl.authorizer.Authorize(docID, credential)
	if err != nil {
		log.Warn().Err(err).Str("module", "presence").Str("doc", string(docID)).Msg("authorization rejected")
		conn.closeWithCode(CloseUnauthorized, "unauthorized")
		return
	}

	room, ok := ctl.registry.Get(docID)
	if !ok {
		conn.closeWithCode(CloseUnauthorized, "unauthorized")
		return
	}
	if err := room.Attach(identity.UserID, conn); err != nil {
		log.Warn().Err(err).Str("module", "presence").Str("doc", string(docID)).Str("user", string(identity.UserID)).Msg("admission rejected")
		conn.closeWithCode(CloseUnauthorized, "unauthorized")
		return
	}
	log.Info().Str("module", "presence").Str("doc", string(docID)).Str("user", string(identity.UserID)).Msg("connection admitted")

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		ctl.writePump(ctx, conn)
	}()
	go func() {
		defer cancel()
		ctl.readPump(ctx, docID, identity.UserID, room, conn)
	}()
}

func (ctl *Controller) readPump(ctx context.Context, docID domain.DocumentID, userID domain.UserID, room *core.Room, c *wsConn) {
	defer func() {
		c.Close()
		room.Detach(userID, c)
		log.Info().Str("module", "presence").Str("doc", string(docID)).Str("user", string(userID)).Msg("readPump closing")
	}()

	c.conn.SetReadLimit(ctl.readLimit)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "presence").Str("user", string(userID)).Msg("readPump read error")
			}
			return
		}
		switch messageType {
		case websocket.TextMessage:
			ctl.handleCommand(ctx, docID, userID, data)
		case websocket.BinaryMessage:
			if ctl.engine == nil {
				continue
			}
			if err := ctl.engine.HandleUpdate(ctx, docID, userID, data); err != nil {
				log.Error().Err(err).Str("module", "presence").Str("doc", string(docID)).Msg("engine update")
			}
		}
	}
}
