package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"notes-server/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrManagerStopped     = errors.New("websocket manager stopped")
	ErrTooManyConnections = errors.New("too many connections for user")
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// registration asks Run to admit a client; the verdict comes back on result.
type registration struct {
	client *Client
	result chan error
}

type Config struct {
	MaxConnPerUser int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

// Manager tracks open connections per user and fans note events out to them.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	register       chan registration
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	done           chan struct{}
	maxConnPerUser int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	logger         zerolog.Logger
}

func NewManager(cfg Config, logger zerolog.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		register:       make(chan registration),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConnPerUser: cfg.MaxConnPerUser,
		maxMessageSize: cfg.MaxMessageSize,
		writeWait:      cfg.WriteWait,
		pongWait:       cfg.PongWait,
		pingPeriod:     cfg.PingPeriod,
		logger:         logger.With().Str("component", "websocket").Logger(),
	}
}

// Run serves registrations and inbound messages until ctx is cancelled, then
// closes every remaining connection.
func (m *Manager) Run(ctx context.Context) {
	defer m.shutdown()

	for {
		select {
		case reg := <-m.register:
			reg.result <- m.registerClient(reg.client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) shutdown() {
	close(m.done)

	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for id, client := range m.clients {
		close(client.Send)
		delete(m.clients, id)
	}
	m.userIndex = make(map[string]map[string]bool)
}

// Connect registers an upgraded connection for userID and starts its pumps.
// A rejected connection is closed before Connect returns; the error is
// ErrTooManyConnections or ErrManagerStopped.
func (m *Manager) Connect(conn *websocket.Conn, userID string) error {
	client := NewClient(uuid.New().String(), userID, conn, m)
	if err := m.admit(client); err != nil {
		code := websocket.CloseGoingAway
		if errors.Is(err, ErrTooManyConnections) {
			code = websocket.ClosePolicyViolation
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, err.Error()), time.Now().Add(m.writeWait))
		conn.Close()
		return err
	}

	go client.WritePump()
	go client.ReadPump()
	return nil
}

// admit hands a client to Run and waits for its verdict.
func (m *Manager) admit(client *Client) error {
	reg := registration{client: client, result: make(chan error, 1)}
	select {
	case m.register <- reg:
		return <-reg.result
	case <-m.done:
		return ErrManagerStopped
	}
}

func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) registerClient(client *Client) error {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		m.logger.Warn().Str("user_id", client.UserID).Msg("max connections reached")
		return ErrTooManyConnections
	}

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}
	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	m.logger.Debug().Str("client_id", client.ID).Str("user_id", client.UserID).Msg("client registered")
	return nil
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		m.logger.Debug().Str("client_id", client.ID).Msg("client unregistered")
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.logger.Debug().Err(err).Str("client_id", clientMsg.Client.ID).Msg("error unmarshaling message")
		m.replyError(clientMsg.Client.ID, "malformed message")
		return
	}

	switch msg.Type {
	case TypePing:
		pong, _ := NewMessage(TypePong, nil)
		m.SendToClient(clientMsg.Client.ID, pong)
	default:
		m.replyError(clientMsg.Client.ID, "unsupported message type")
	}
}

func (m *Manager) replyError(clientID, reason string) {
	msg, err := NewMessage(TypeError, ErrorPayload{Error: reason})
	if err != nil {
		return
	}
	m.SendToClient(clientID, msg)
}

// PublishNoteEvent pushes a note change to every open connection of its owner.
func (m *Manager) PublishNoteEvent(event domain.NoteEvent) {
	msg, err := NewNoteEventMessage(event)
	if err != nil {
		m.logger.Error().Err(err).Str("note_id", event.NoteID).Msg("failed to encode note event")
		return
	}
	if err := m.BroadcastToUser(event.OwnerID, msg); err != nil {
		m.logger.Error().Err(err).Str("note_id", event.NoteID).Msg("failed to broadcast note event")
	}
}

// BroadcastToUser queues message on each of the user's connections. Clients
// whose buffers are full are dropped after the read lock is released.
func (m *Manager) BroadcastToUser(userID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var stalled []*Client

	m.clientsMutex.RLock()
	for clientID := range m.userIndex[userID] {
		client := m.clients[clientID]
		select {
		case client.Send <- messageBytes:
		default:
			stalled = append(stalled, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range stalled {
		m.logger.Warn().Str("client_id", client.ID).Msg("send buffer full, closing connection")
		m.unregisterClient(client)
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		m.logger.Warn().Str("client_id", clientID).Msg("send buffer full")
	}

	return nil
}

func (m *Manager) GetUserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if clients, exists := m.userIndex[userID]; exists {
		return len(clients)
	}
	return 0
}
