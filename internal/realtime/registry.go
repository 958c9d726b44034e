package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is one open streaming response for one client. Frames are pushed to
// send by the registry and drained by the endpoint's write loop.
type Conn struct {
	ClientID string
	UserID   string
	ChatID   string
	send     chan []byte
}

// Frames returns the channel the endpoint drains into the transport.
func (c *Conn) Frames() <-chan []byte {
	return c.send
}

// Registry is the per-process index of open streaming connections. Three
// maps are kept consistent under one mutex:
//
//	usersByChat:   chatID -> userIDs with at least one open connection
//	clientsByUser: userID -> clientIDs (multiple tabs/devices)
//	connByClient:  clientID -> connection
type Registry struct {
	mu sync.RWMutex

	usersByChat   map[string]map[string]bool
	clientsByUser map[string]map[string]bool
	connByClient  map[string]*Conn

	logger *zap.SugaredLogger
}

func NewRegistry(logger *zap.SugaredLogger) *Registry {
	return &Registry{
		usersByChat:   make(map[string]map[string]bool),
		clientsByUser: make(map[string]map[string]bool),
		connByClient:  make(map[string]*Conn),
		logger:        logger,
	}
}

// Register allocates a new connection for the (user, chat) pair and inserts
// it into all three indexes.
func (r *Registry) Register(userID, chatID string) *Conn {
	conn := &Conn{
		ClientID: uuid.NewString(),
		UserID:   userID,
		ChatID:   chatID,
		send:     make(chan []byte, 256),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clientsByUser[userID] == nil {
		r.clientsByUser[userID] = make(map[string]bool)
	}
	r.clientsByUser[userID][conn.ClientID] = true

	r.connByClient[conn.ClientID] = conn

	if r.usersByChat[chatID] == nil {
		r.usersByChat[chatID] = make(map[string]bool)
	}
	r.usersByChat[chatID][userID] = true

	return conn
}

// Deregister removes the connection from all indexes, pruning empty sets so
// no dangling collections remain. Calling it twice is a benign no-op, which
// covers double-close races.
func (r *Registry) Deregister(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connByClient[conn.ClientID]; !ok {
		return
	}
	delete(r.connByClient, conn.ClientID)

	if clients, ok := r.clientsByUser[conn.UserID]; ok {
		delete(clients, conn.ClientID)
		if len(clients) == 0 {
			delete(r.clientsByUser, conn.UserID)
		}
	}

	// The user stays subscribed to the chat as long as any other of their
	// connections still points at it.
	for clientID := range r.clientsByUser[conn.UserID] {
		if other, ok := r.connByClient[clientID]; ok && other.ChatID == conn.ChatID {
			return
		}
	}
	if users, ok := r.usersByChat[conn.ChatID]; ok {
		delete(users, conn.UserID)
		if len(users) == 0 {
			delete(r.usersByChat, conn.ChatID)
		}
	}
}

// Emit writes the payload to every open connection of the user. Slow
// connections with a full buffer are skipped rather than blocking delivery
// to everyone else; a connection torn down concurrently simply drops the
// frame.
func (r *Registry) Emit(userID string, payload []byte) {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.clientsByUser[userID]))
	for clientID := range r.clientsByUser[userID] {
		if conn, ok := r.connByClient[clientID]; ok {
			conns = append(conns, conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		select {
		case conn.send <- payload:
			// delivered
		default:
			r.logger.Warnw("dropping frame for slow client",
				"clientId", conn.ClientID, "userId", userID)
		}
	}
}

// UsersByChat returns a snapshot of the users currently subscribed to the chat.
func (r *Registry) UsersByChat(chatID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.usersByChat[chatID]))
	for userID := range r.usersByChat[chatID] {
		users = append(users, userID)
	}
	return users
}

// Subscribed reports whether this process still has any open connection for
// the chat. Host membership in the routing registry is recomputed from this,
// never counted.
func (r *Registry) Subscribed(chatID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.usersByChat[chatID]) > 0
}

// Len returns the number of open connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connByClient)
}
