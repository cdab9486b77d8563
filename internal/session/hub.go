package session

import (
	"strings"
	"sync"
	"time"

	"github.com/cooksync/internal/store"
	"github.com/cooksync/pkg/logger"
)

// Hub routes session identifiers to their actors, lazily creating one the
// first time an identifier is addressed. Different identifiers are fully
// independent and run in parallel; the hub itself only guards the routing
// table.
type Hub struct {
	mu     sync.Mutex
	actors map[string]*Actor
	store  store.Store
	log    *logger.Logger
	clock  func() time.Time
}

// NewHub creates a hub backed by the given store.
func NewHub(st store.Store, log *logger.Logger) *Hub {
	return &Hub{
		actors: make(map[string]*Actor),
		store:  st,
		log:    log,
		clock:  time.Now,
	}
}

// Get returns the actor owning the given identifier, creating and starting
// it on first use. Identifiers are matched case-insensitively.
func (h *Hub) Get(id string) *Actor {
	key := Normalize(id)

	h.mu.Lock()
	defer h.mu.Unlock()

	if actor, ok := h.actors[key]; ok {
		return actor
	}

	actor := newActor(key, h.store, h.log, h.clock)
	h.actors[key] = actor
	go actor.run()

	h.log.Debug("Session actor created", logger.F("session_id", key))
	return actor
}

// Normalize canonicalizes a session identifier for routing.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
