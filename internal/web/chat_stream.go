package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evcraddock/rentshed/internal/session"
)

const (
	// Time allowed to read the next pong from the browser.
	pongWait = 60 * time.Second

	// Ping the browser with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// chatFrame is a message sent by the browser over the chat stream.
type chatFrame struct {
	Text string `json:"text"`
}

// handleChatStream upgrades to a websocket that carries the active chat of
// the caller's board. The log so far is sent first, then every new
// message including the owner's delayed replies.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(boardCookie)
	if err != nil {
		http.Error(w, "No board", http.StatusNotFound)
		return
	}
	ctrl, ok := s.boards.Get(c.Value)
	if !ok {
		http.Error(w, "No board", http.StatusNotFound)
		return
	}
	chat := ctrl.Chat()
	if chat == nil {
		http.Error(w, "No chat open", http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrading chat stream", "error", err)
		return
	}

	send := make(chan session.Message, sendBufferSize)
	unsubscribe := chat.Subscribe(func(m session.Message) {
		select {
		case send <- m:
		default:
			slog.Warn("chat stream too slow, dropping message", "listing", chat.ListingID(), "message", m.ID)
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go readChatFrames(conn, chat, done)
	writeChatFrames(conn, chat, chat.Messages(), send, done)
}

// readChatFrames forwards browser messages to the chat until the
// connection closes.
func readChatFrames(conn *websocket.Conn, chat *session.Chat, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("chat stream closed", "error", err)
			}
			return
		}

		var f chatFrame
		if err := json.Unmarshal(data, &f); err != nil {
			slog.Debug("invalid chat frame", "error", err)
			continue
		}
		chat.Send(f.Text)
	}
}

// writeChatFrames sends the backlog, then streams new messages and pings
// until the reader stops or the chat is closed.
func writeChatFrames(conn *websocket.Conn, chat *session.Chat, backlog []session.Message, send <-chan session.Message, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := conn.Close(); err != nil {
			slog.Debug("closing chat stream", "error", err)
		}
	}()

	for _, m := range backlog {
		if err := writeJSON(conn, m); err != nil {
			return
		}
	}
	lastID := 0
	if len(backlog) > 0 {
		lastID = backlog[len(backlog)-1].ID
	}

	for {
		select {
		case m := <-send:
			if m.ID <= lastID {
				continue
			}
			lastID = m.ID
			if err := writeJSON(conn, m); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if chat.Closed() {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "chat closed"))
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		slog.Debug("writing chat frame", "error", err)
		return err
	}
	return nil
}
