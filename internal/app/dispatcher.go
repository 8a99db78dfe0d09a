package app

import (
	"errors"
	"fmt"

	"github.com/dkeye/Tabletop/internal/core"
	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/dkeye/Tabletop/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Dispatcher is the single entry point for inbound events. Per message it
// resolves the sender from the registry, then runs admit -> apply -> deliver
// under the target room's lock, so every room stays a single-writer.
type Dispatcher struct {
	Registry *Registry
	Rooms    *core.RoomStore
	Caster   *Broadcaster
}

func NewDispatcher(reg *Registry, rooms *core.RoomStore, caster *Broadcaster) *Dispatcher {
	return &Dispatcher{Registry: reg, Rooms: rooms, Caster: caster}
}

// Connect runs the join pipeline for a freshly bound connection. The
// returned error is the admission verdict; on rejection nothing was mutated
// and the adapter should drop the connection.
func (d *Dispatcher) Connect(pid domain.PlayerID, roomID domain.RoomID, password string) error {
	join := &core.PlayerJoined{Password: password}
	join.RoomID = roomID
	join.PlayerID = pid
	return d.dispatch(pid, join)
}

// Disconnect models a vanished socket as a synthetic leave, ordered through
// the same per-room serialization as everything else, then unbinds.
func (d *Dispatcher) Disconnect(pid domain.PlayerID) {
	if roomID, ok := d.Registry.RoomOf(pid); ok {
		leave := &core.PlayerLeft{}
		leave.RoomID = roomID
		leave.PlayerID = pid
		_ = d.dispatch(pid, leave)
	}
	d.Registry.Unbind(pid)
}

// HandleMessage decodes one raw frame from pid's connection and dispatches
// it. Decode failures are reported like rejections.
func (d *Dispatcher) HandleMessage(pid domain.PlayerID, data []byte) {
	ev, err := core.DecodeEvent(data)
	if err != nil {
		metrics.EventsTotal.WithLabelValues("unknown", "rejected").Inc()
		d.reject(pid, err)
		return
	}
	_ = d.dispatch(pid, ev)
}

func (d *Dispatcher) dispatch(pid domain.PlayerID, ev core.Event) error {
	hdr := ev.Hdr()
	hdr.PlayerID = pid

	if join, ok := ev.(*core.PlayerJoined); ok {
		return d.dispatchJoin(pid, join)
	}

	roomID, ok := d.Registry.RoomOf(pid)
	if !ok {
		d.rejectEvent(pid, ev, core.ErrRoomNotFound)
		return core.ErrRoomNotFound
	}
	hdr.RoomID = roomID

	room, ok := d.Rooms.Get(roomID)
	if ok {
		room.Lock()
		if room.Dead() {
			room.Unlock()
			ok = false
		}
	}
	if !ok {
		d.rejectEvent(pid, ev, core.ErrRoomNotFound)
		return core.ErrRoomNotFound
	}
	defer room.Unlock()
	return d.applyLocked(room, ev)
}

// dispatchJoin handles the one cross-room operation. The leave against the
// previous room fully completes (host election, possible destruction, its
// own broadcast) before the new room is even resolved, so room locks never
// nest.
func (d *Dispatcher) dispatchJoin(pid domain.PlayerID, join *core.PlayerJoined) error {
	if oldID, ok := d.Registry.RoomOf(pid); ok {
		if oldID == join.RoomID {
			return nil
		}
		leave := &core.PlayerLeft{}
		leave.RoomID = oldID
		leave.PlayerID = pid
		_ = d.dispatch(pid, leave)
	}

	for {
		room := d.Rooms.GetOrCreate(join.RoomID)
		room.Lock()
		if room.Dead() {
			// Destroyed while we waited on the lock; resolve again.
			room.Unlock()
			continue
		}
		err := d.applyLocked(room, join)
		room.Unlock()
		return err
	}
}

// applyLocked runs admission, the transition and delivery. The caller holds
// the room lock. A panic out of the transition is a broken invariant; it
// aborts this room's processing only, never the server.
func (d *Dispatcher) applyLocked(room *core.Room, ev core.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.dispatcher").Str("room", string(room.ID())).
				Str("kind", string(ev.Kind())).Interface("panic", r).
				Msg("transition panicked, aborting this room's event")
			err = fmt.Errorf("internal error applying %s: %v", ev.Kind(), r)
		}
	}()

	if err := core.Admit(room, ev); err != nil {
		metrics.EventsTotal.WithLabelValues(string(ev.Kind()), "rejected").Inc()
		d.rejectEvent(ev.Hdr().PlayerID, ev, err)
		return err
	}

	echo := core.Apply(d.Rooms, room, ev)

	switch e := ev.(type) {
	case *core.PlayerJoined:
		d.Registry.SetRoom(e.PlayerID, room.ID())
	case *core.PlayerLeft:
		d.Registry.ClearRoom(e.PlayerID)
	}

	metrics.EventsTotal.WithLabelValues(string(ev.Kind()), "applied").Inc()
	metrics.RoomsActive.Set(float64(d.Rooms.Count()))

	d.deliverCommitted(room, echo)
	return nil
}

// deliverCommitted drains the echo queue. The mutations behind these events
// have committed; on an aborted broadcast the policy is to drop every
// unreachable member (their leaves join the queue) and re-deliver to the
// survivors until the queue drains or the room dies.
func (d *Dispatcher) deliverCommitted(room *core.Room, pending []core.Event) {
	for len(pending) > 0 {
		err := d.Caster.Deliver(room, pending[0])
		if err == nil {
			pending = pending[1:]
			continue
		}

		var aborted *core.ErrDelivery
		if !errors.As(err, &aborted) {
			log.Error().Err(err).Str("module", "app.dispatcher").
				Str("room", string(room.ID())).Msg("delivery failed")
			pending = pending[1:]
			continue
		}

		log.Warn().Str("module", "app.dispatcher").Str("room", string(room.ID())).
			Int("unreachable", len(aborted.Dead)).Msg("broadcast aborted, evicting dead members")
		for _, pid := range aborted.Dead {
			if !room.HasMember(pid) {
				continue
			}
			leave := &core.PlayerLeft{}
			leave.RoomID = room.ID()
			leave.PlayerID = pid
			pending = append(pending, core.Apply(d.Rooms, room, leave)...)
			d.Registry.ClearRoom(pid)
			d.Registry.Cancel(pid)
			metrics.EventsTotal.WithLabelValues(string(core.EvPlayerLeft), "applied").Inc()
		}
		metrics.RoomsActive.Set(float64(d.Rooms.Count()))
		if room.Dead() {
			return
		}
	}
}

func (d *Dispatcher) reject(pid domain.PlayerID, reason error) {
	log.Warn().Str("module", "app.dispatcher").Str("player", string(pid)).
		Err(reason).Msg("event rejected")
	rej := &core.ErrorEvent{Reason: reason.Error()}
	rej.PlayerID = pid
	d.Caster.Send(pid, rej)
}

func (d *Dispatcher) rejectEvent(pid domain.PlayerID, ev core.Event, reason error) {
	log.Warn().Str("module", "app.dispatcher").Str("player", string(pid)).
		Str("kind", string(ev.Kind())).Err(reason).Msg("event rejected")
	rej := &core.ErrorEvent{Reason: reason.Error()}
	rej.PlayerID = pid
	rej.RoomID = ev.Hdr().RoomID
	d.Caster.Send(pid, rej)
}
