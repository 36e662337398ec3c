package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/themobileprof/healthtrack-be/internal/api/middleware"
	"github.com/themobileprof/healthtrack-be/internal/chat"
	"github.com/themobileprof/healthtrack-be/internal/privacy"
	"github.com/themobileprof/healthtrack-be/internal/symptoms"
)

// Processor routes one message and writes the outcome to a responder
type Processor interface {
	ProcessMessage(ctx context.Context, req chat.Request, responder chat.Responder) error
}

// Options configures the chat handler
type Options struct {
	// Origins allowed to open a socket; "*" or empty allows all
	Origins           []string
	MessagesPerMinute int
}

// ChatHandler handles WebSocket chat connections
type ChatHandler struct {
	engine   Processor
	upgrader websocket.Upgrader
	perMin   int
}

// NewChatHandler creates a new chat handler
func NewChatHandler(engine Processor, opts Options) *ChatHandler {
	return &ChatHandler{
		engine:   engine,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(opts.Origins)},
		perMin:   opts.MessagesPerMinute,
	}
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Content string `json:"content"`
}

// OutgoingMessage represents a message to the client
type OutgoingMessage struct {
	Type    string      `json:"type"` // "message", "entries", "error", "done"
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// HandleChat handles WebSocket chat connections
// GET /ws/chat?user_id=u1&timezone=America/New_York
func (h *ChatHandler) HandleChat(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	timezone := c.Query("timezone")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	limiter := middleware.NewWebSocketLimiter(h.perMin)
	responder := &connResponder{conn: conn}

	log.WithField("user", privacy.MaskOwner(userID)).Info("WebSocket connected")

	for {
		var msg IncomingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if strings.TrimSpace(msg.Content) == "" {
			continue
		}

		if !limiter.Allow() {
			if err := rejectLimited(responder); err != nil {
				log.Printf("Error writing rate limit reply: %v", err)
				break
			}
			continue
		}

		err := h.engine.ProcessMessage(c.Request.Context(), chat.Request{
			UserID:   userID,
			Message:  msg.Content,
			Timezone: timezone,
		}, responder)
		if err != nil {
			log.Printf("Error processing message: %v", err)
			break
		}
	}
}

// rejectLimited tells the client a message was dropped by the rate limiter
func rejectLimited(responder chat.Responder) error {
	if err := responder.SendError("Too many messages. Please slow down."); err != nil {
		return err
	}
	return responder.SendDone()
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(origins) == 0 || allowed["*"] || allowed[origin]
	}
}

// connResponder writes engine output as JSON frames
type connResponder struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ chat.Responder = (*connResponder)(nil)

func (r *connResponder) write(msg OutgoingMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn.WriteJSON(msg)
}

// SendMessage sends the rendered reply text
func (r *connResponder) SendMessage(content string) error {
	return r.write(OutgoingMessage{Type: "message", Content: content})
}

// SendEntries sends the raw entry list for UI clients
func (r *connResponder) SendEntries(entries []symptoms.Entry) error {
	if entries == nil {
		entries = []symptoms.Entry{}
	}
	return r.write(OutgoingMessage{Type: "entries", Data: entries})
}

// SendError sends an error message to the client
func (r *connResponder) SendError(message string) error {
	return r.write(OutgoingMessage{Type: "error", Content: message})
}

// SendDone signals that the response is complete
func (r *connResponder) SendDone() error {
	return r.write(OutgoingMessage{Type: "done"})
}
