package ws

import (
	"context"
	"net/http"

	"github.com/dkeye/Tabletop/internal/app"
	"github.com/dkeye/Tabletop/internal/config"
	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Controller upgrades table connections and feeds their frames into the
// dispatch loop. Each connection gets a server-minted player identifier for
// its lifetime; the room comes from the URL, never from the payload.
type Controller struct {
	Dispatcher *app.Dispatcher
	limiter    *EventRateLimiter
	cfg        *config.Config
}

func NewController(cfg *config.Config, d *app.Dispatcher) *Controller {
	return &Controller{
		Dispatcher: d,
		limiter:    NewEventRateLimiter(cfg.EventRate, cfg.EventWindow),
		cfg:        cfg,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	roomID := domain.RoomID(c.Query("roomID"))
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomID query parameter required"})
		return
	}
	password := c.Query("password")

	wsc, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	wsc.SetReadLimit(ctl.cfg.ReadLimit)

	conn := newConn(wsc)
	player := domain.NewPlayer()
	log.Info().Str("module", "ws").Str("player", string(player.ID)).
		Str("room", string(roomID)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	ctl.Dispatcher.Registry.Bind(player.ID, conn, cancel)
	go ctl.writePump(ctx, conn)

	if err := ctl.Dispatcher.Connect(player.ID, roomID, password); err != nil {
		// The rejection frame is already queued; give the write pump its
		// shot at flushing before the socket dies.
		log.Warn().Err(err).Str("module", "ws").Str("player", string(player.ID)).Msg("join rejected")
		cancel()
		ctl.Dispatcher.Registry.Unbind(player.ID)
		return
	}

	go ctl.readPump(ctx, player.ID, conn)
}
