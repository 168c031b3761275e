package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/necesitomasreviews/backend/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled at the HTTP level
	},
}

// Socket message types (client -> server and server -> client).
const (
	msgAuthenticate = "authenticate"
	msgMarkRead     = "mark_read"

	msgAuthenticated = "authenticated"
	msgUnread        = "unread_notifications"
	msgNotification  = "notification"
	msgMarkedRead    = "notifications_marked_read"
	msgError         = "error"
)

const (
	authTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 16
)

type clientMessage struct {
	Type            string   `json:"type"`
	Token           string   `json:"token,omitempty"`
	NotificationIDs []string `json:"notificationIds,omitempty"`
}

type serverMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// session wraps one websocket connection. All writes go through the send
// channel; the write pump is the connection's only writer.
type session struct {
	conn *websocket.Conn
	send chan serverMessage
	once sync.Once
}

func newSession(conn *websocket.Conn) *session {
	return &session{conn: conn, send: make(chan serverMessage, sendBuffer)}
}

// enqueue drops the message when the session's buffer is full rather than
// blocking the publisher.
func (s *session) enqueue(msg serverMessage) {
	select {
	case s.send <- msg:
	default:
		log.Printf("ws: dropping message for slow session")
	}
}

func (s *session) close() {
	s.once.Do(func() { close(s.send) })
}

func (s *session) writePump() {
	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// NotificationSocket handles the real-time notification channel.
type NotificationSocket struct {
	hub           *Hub
	auth          *service.AuthService
	notifications *service.NotificationService
}

// NewNotificationSocket creates the websocket handler.
func NewNotificationSocket(hub *Hub, auth *service.AuthService, notifications *service.NotificationService) *NotificationSocket {
	return &NotificationSocket{hub: hub, auth: auth, notifications: notifications}
}

// Handle upgrades HTTP to WebSocket. The first client message must be an
// authenticate frame; after that the session receives its unread backlog and
// live notifications until it disconnects.
func (h *NotificationSocket) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess := newSession(conn)
	go sess.writePump()
	defer sess.close()

	// Authentication handshake binds the session to exactly one user.
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	var first clientMessage
	if err := conn.ReadJSON(&first); err != nil || first.Type != msgAuthenticate {
		sess.enqueue(serverMessage{Type: msgError, Payload: errorPayload{Message: "authentication required"}})
		return
	}

	claims, err := h.auth.VerifyToken(first.Token)
	if err != nil {
		sess.enqueue(serverMessage{Type: msgError, Payload: errorPayload{Message: "invalid token"}})
		return
	}
	userID := claims.Sub

	if !h.hub.add(userID, sess) {
		return // hub shutting down
	}
	defer h.hub.remove(userID, sess)

	sess.enqueue(serverMessage{Type: msgAuthenticated})

	backlog, err := h.notifications.UnreadBacklog(r.Context(), userID)
	if err != nil {
		log.Printf("ws: failed to load unread backlog for %s: %v", userID, err)
	} else {
		sess.enqueue(serverMessage{Type: msgUnread, Payload: backlog})
	}

	conn.SetReadDeadline(time.Time{})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			sess.enqueue(serverMessage{Type: msgError, Payload: errorPayload{Message: "invalid message"}})
			continue
		}

		switch msg.Type {
		case msgMarkRead:
			if err := h.notifications.MarkRead(r.Context(), userID, msg.NotificationIDs); err != nil {
				sess.enqueue(serverMessage{Type: msgError, Payload: errorPayload{Message: err.Error()}})
				continue
			}
			sess.enqueue(serverMessage{Type: msgMarkedRead, Payload: map[string][]string{"ids": msg.NotificationIDs}})
		default:
			sess.enqueue(serverMessage{Type: msgError, Payload: errorPayload{Message: "unknown message type"}})
		}
	}
}
