package watcher

import (
	"maps"
	"sync"
)

// Registrations maps game id -> nation name -> mention.
type Registrations struct {
	mu      sync.RWMutex
	players map[string]map[string]string
}

func NewRegistrations(initial map[string]map[string]string) *Registrations {
	players := map[string]map[string]string{}
	for gameId, nations := range initial {
		players[gameId] = maps.Clone(nations)
	}
	return &Registrations{players: players}
}

// Get returns a copy of the registrations of a game, never nil.
func (r *Registrations) Get(gameId string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := maps.Clone(r.players[gameId])
	if out == nil {
		out = map[string]string{}
	}
	return out
}

func (r *Registrations) Set(gameId, nation, mention string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nations, ok := r.players[gameId]
	if !ok {
		nations = map[string]string{}
		r.players[gameId] = nations
	}
	nations[nation] = mention
}

func (r *Registrations) Delete(gameId, nation string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	nations, ok := r.players[gameId]
	if !ok {
		return false
	}
	if _, ok := nations[nation]; !ok {
		return false
	}
	delete(nations, nation)
	if len(nations) == 0 {
		delete(r.players, gameId)
	}
	return true
}
