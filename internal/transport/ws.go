package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/ashureev/peerbot/internal/engine"
)

// ConsoleHandler serves a websocket console that talks to the engine
// directly, without Telegram. Useful for local development and demos.
type ConsoleHandler struct {
	engine *engine.Engine
	logger *slog.Logger
	nextID atomic.Int64
}

// NewConsoleHandler creates a console handler.
func NewConsoleHandler(eng *engine.Engine, logger *slog.Logger) *ConsoleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &ConsoleHandler{engine: eng, logger: logger}
	// Console users get negative IDs so they can never collide with
	// real Telegram accounts.
	h.nextID.Store(-1)
	return h
}

// consoleMessage is one inbound console frame.
type consoleMessage struct {
	Kind    string `json:"kind"` // "text" or "choice"
	Payload string `json:"payload"`
	Handle  string `json:"handle,omitempty"`
	Name    string `json:"name,omitempty"`
}

// consoleEffect is one outbound console frame.
type consoleEffect struct {
	Message string          `json:"message"`
	Choices []engine.Choice `json:"choices,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *ConsoleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("accept websocket failed", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "console closed"); closeErr != nil {
			h.logger.Debug("close websocket failed", "error", closeErr)
		}
	}()

	userID := h.consoleUserID(r)
	h.logger.Info("console connected", "user_id", userID, "ip", r.RemoteAddr)

	ctx := r.Context()
	for {
		var msg consoleMessage
		if err := readJSON(ctx, ws, &msg); err != nil {
			h.logger.Debug("console read ended", "user_id", userID, "error", err)
			return
		}

		kind := engine.KindText
		if msg.Kind == "choice" {
			kind = engine.KindChoice
		}
		effects := h.engine.HandleEvent(ctx, engine.Event{
			UserID:   userID,
			Kind:     kind,
			Payload:  msg.Payload,
			Handle:   msg.Handle,
			FullName: msg.Name,
		})

		for _, eff := range effects {
			out := consoleEffect{Message: eff.Message, Choices: eff.Choices}
			if err := writeJSON(ctx, ws, out); err != nil {
				h.logger.Debug("console write failed", "user_id", userID, "error", err)
				return
			}
		}
	}
}

// consoleUserID picks the simulated user: an explicit ?user=<id> query
// parameter, or a fresh negative ID per connection.
func (h *ConsoleHandler) consoleUserID(r *http.Request) int64 {
	if raw := r.URL.Query().Get("user"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id
		}
	}
	return h.nextID.Add(-1)
}

func readJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	_, data, err := ws.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
