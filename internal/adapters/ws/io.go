package ws

import (
	"context"
	"time"

	"github.com/dkeye/Tabletop/internal/core"
	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		ctl.flush(c)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := ctl.write(c, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

// flush drains whatever is still queued so a rejection frame sent right
// before teardown still reaches the client.
func (ctl *Controller) flush(c *Conn) {
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := ctl.write(c, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (ctl *Controller) write(c *Conn, data core.Frame) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (ctl *Controller) readPump(ctx context.Context, pid domain.PlayerID, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("player", string(pid)).Msg("readPump closing")
		ctl.limiter.Forget(pid)
		ctl.Dispatcher.Disconnect(pid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("player", string(pid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ws").Str("player", string(pid)).Msg("readPump read error")
				return
			}
			if !ctl.limiter.Allow(pid) {
				rej := &core.ErrorEvent{Reason: "rate limited"}
				rej.PlayerID = pid
				if frame, err := core.EncodeEvent(rej); err == nil {
					_ = c.TrySend(frame)
				}
				continue
			}
			ctl.Dispatcher.HandleMessage(pid, data)
		}
	}
}
