package hub

import (
	"encoding/json"
	"sync"

	"github.com/pairpad/collab-service/internal/config"
	"github.com/pairpad/collab-service/pkg/log"
)

// Hub is the process-wide room registry: it tracks every connected client
// and the set of clients per project. Membership changes only on connect
// and disconnect; a client never moves between rooms.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // projectID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *RoomMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// RoomMessage is a payload fanned out to every client of a project except
// the excluded one.
type RoomMessage struct {
	ProjectID string
	Message   []byte
	Exclude   string // client ID to exclude
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomMessage, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			if members, ok := h.rooms[msg.ProjectID]; ok {
				for clientID, client := range members {
					if clientID == msg.Exclude {
						continue
					}
					if !client.trySend(msg.Message) {
						go h.Unregister(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub's client table.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub and its room and closes its send
// queue. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinRoom adds the client to the room for its bound project. Called once,
// at connection time.
func (h *Hub) JoinRoom(client *Client) {
	projectID := client.Session.Project()

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[projectID]; !ok {
		h.rooms[projectID] = make(map[string]*Client)
	}
	h.rooms[projectID][client.ID] = client

	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldProjectID, projectID).Msg("client joined room")
}

// LeaveRoom removes the client from its room. Invoked synchronously on
// disconnect; no-op if the client already left.
func (h *Hub) LeaveRoom(client *Client) {
	projectID := client.Session.Project()

	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[projectID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, projectID)
		}
	}

	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldProjectID, projectID).Msg("client left room")
}

// BroadcastToRoom delivers the message to every client in the project's room
// except the excluded one. Fire and forget: no acknowledgment, no retry, and
// broadcasting to an empty room is a no-op.
func (h *Hub) BroadcastToRoom(projectID string, message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &RoomMessage{
		ProjectID: projectID,
		Message:   data,
		Exclude:   exclude,
	}
	return nil
}

// RoomSize returns the number of clients currently in the project's room.
func (h *Hub) RoomSize(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[projectID])
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	for projectID, members := range h.rooms {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, projectID)
		}
	}
	delete(h.clients, client.ID)
	client.markClosed()

	l := log.L()
	l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
}
