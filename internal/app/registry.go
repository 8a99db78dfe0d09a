package app

import (
	"context"
	"sync"

	"github.com/dkeye/Tabletop/internal/core"
	"github.com/dkeye/Tabletop/internal/domain"
	"github.com/dkeye/Tabletop/internal/metrics"
	"github.com/rs/zerolog/log"
)

type playerEntry struct {
	RoomID domain.RoomID
	Conn   core.SignalConnection
	Cancel context.CancelFunc
}

// Registry maps a player identifier to its live transport connection and
// current room assignment. Constructed once at process start and passed by
// reference; never ambient state.
type Registry struct {
	mu      sync.RWMutex
	players map[domain.PlayerID]*playerEntry
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[domain.PlayerID]*playerEntry)}
}

func (r *Registry) Bind(pid domain.PlayerID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	r.players[pid] = &playerEntry{Conn: conn, Cancel: cancel}
	metrics.PlayersConnected.Set(float64(len(r.players)))
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("player", string(pid)).Msg("bound connection")
}

func (r *Registry) Unbind(pid domain.PlayerID) {
	r.mu.Lock()
	delete(r.players, pid)
	metrics.PlayersConnected.Set(float64(len(r.players)))
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("player", string(pid)).Msg("unbound connection")
}

func (r *Registry) Conn(pid domain.PlayerID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.players[pid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) RoomOf(pid domain.PlayerID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.players[pid]
	if !ok || e.RoomID == "" {
		return "", false
	}
	return e.RoomID, true
}

func (r *Registry) SetRoom(pid domain.PlayerID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.players[pid]; ok {
		e.RoomID = roomID
	}
}

func (r *Registry) ClearRoom(pid domain.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.players[pid]; ok {
		e.RoomID = ""
	}
}

// Cancel tears down the connection's context, which unwinds both pumps.
func (r *Registry) Cancel(pid domain.PlayerID) bool {
	r.mu.RLock()
	e, ok := r.players[pid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("player", string(pid)).Msg("canceled connection")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
