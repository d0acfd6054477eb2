package ws

import (
	"encoding/json"
	"sync"

	"game_lounge/internal/logger"
)

// Presence maps player identities to their live connections. A player
// may hold several connections at once (multiple tabs); they are online
// while at least one remains. Presence knows nothing about games: a
// disconnect only flips flags here, never touches room state.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]map[*Client]struct{}
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[string]map[*Client]struct{})}
}

func (p *Presence) Attach(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		p.conns[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Debug("presence attach", "user", c.UserID, "conns", len(set))
}

// Detach removes the connection and reports whether the player went
// fully offline.
func (p *Presence) Detach(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[c.UserID]
	if !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(p.conns, c.UserID)
		return true
	}
	return false
}

func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns[userID]) > 0
}

// Send delivers a message to every live connection of one player.
func (p *Presence) Send(userID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("presence send: marshal failed", "error", err)
		return
	}

	p.mu.RLock()
	clients := make([]*Client, 0, len(p.conns[userID]))
	for c := range p.conns[userID] {
		clients = append(clients, c)
	}
	p.mu.RUnlock()

	// Never block on a slow connection: the caller may be a room actor,
	// and one dead tab must not delay broadcasts for the whole room.
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
			logger.Warn("presence send: buffer full, message dropped", "user", userID, "type", msg.Type)
		}
	}
}
