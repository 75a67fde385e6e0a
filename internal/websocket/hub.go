package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/dinobank/internal/events"
)

// Message is the realtime notification sent to a family's connected clients.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage converts a committed event into its client-facing form.
func NewMessage(e events.Event) Message {
	extra := map[string]any{"account_id": e.AccountID}
	if e.Amount != 0 {
		extra["amount"] = e.Amount
	}
	if e.Balance != nil {
		extra["balance"] = *e.Balance
	}
	if e.Status != "" {
		extra["status"] = e.Status
	}
	return Message{
		Type:   string(e.Type),
		Entity: e.Type.Entity(),
		Action: e.Type.Action(),
		ID:     e.EntityID,
		Extra:  extra,
	}
}

// Hub keeps one room of clients per family. A family is a parent and the
// children linked to them.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.familyID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.familyID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from its room and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.familyID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.familyID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends msg about accountID to the clients in the family's room
// that may read that account.
func (h *Hub) Broadcast(familyID, accountID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[familyID] {
		if !c.canSee(familyID, accountID) {
			continue
		}
		if !c.enqueue(data) {
			h.logger.Debug("client buffer full, dropping message", "family_id", familyID, "type", msg.Type)
		}
	}
}

// Publish implements events.Publisher.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	h.Broadcast(e.FamilyID, e.AccountID, NewMessage(e))
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}
