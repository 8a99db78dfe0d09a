package app

import (
	"github.com/dkeye/Tabletop/internal/core"
	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/dkeye/Tabletop/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Broadcaster delivers committed events to every member of a room. Delivery
// is all-or-nothing: before anything is written it confirms every member
// still has a live connection, and aborts the whole broadcast otherwise.
type Broadcaster struct {
	registry *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{registry: reg}
}

// Deliver fans ev out to the post-mutation membership. The caller holds the
// room lock. A *core.ErrDelivery return names the unreachable members; the
// mutation has already committed when that happens.
func (b *Broadcaster) Deliver(room *core.Room, ev core.Event) error {
	members := room.MemberIDs()
	conns := make([]core.SignalConnection, len(members))
	var dead []domain.PlayerID
	for i, pid := range members {
		conn, ok := b.registry.Conn(pid)
		if !ok || conn.Closed() {
			dead = append(dead, pid)
			continue
		}
		conns[i] = conn
	}
	if dead != nil {
		metrics.BroadcastAborts.Inc()
		return &core.ErrDelivery{Dead: dead}
	}

	join, isJoin := ev.(*core.PlayerJoined)
	var frame core.Frame
	if !isJoin {
		var err error
		frame, err = core.EncodeEvent(ev)
		if err != nil {
			return err
		}
	}

	for i, pid := range members {
		out := frame
		if isJoin {
			// Per-recipient rewrite: the joiner bootstraps from a full
			// snapshot, existing members only learn the new identifier.
			msg := *join
			if pid == join.PlayerID {
				msg.Snapshot = room.Snapshot()
			} else {
				msg.Snapshot = nil
			}
			var err error
			out, err = core.EncodeEvent(&msg)
			if err != nil {
				return err
			}
		}
		if err := conns[i].TrySend(out); err != nil {
			dead = append(dead, pid)
		}
	}
	if dead != nil {
		metrics.BroadcastAborts.Inc()
		return &core.ErrDelivery{Dead: dead}
	}

	log.Debug().Str("module", "app.broadcast").Str("room", string(room.ID())).
		Str("kind", string(ev.Kind())).Int("sent_to", len(members)).Msg("delivered")
	return nil
}

// Send delivers a single frame to one player, used for rejection reports.
func (b *Broadcaster) Send(pid domain.PlayerID, ev core.Event) {
	conn, ok := b.registry.Conn(pid)
	if !ok {
		return
	}
	frame, err := core.EncodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("encode direct send")
		return
	}
	_ = conn.TrySend(frame)
}
