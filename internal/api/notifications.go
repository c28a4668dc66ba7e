package api

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/nova-hq/nova/internal/middleware"
)

// handleNotifications drains the user's pending notices.
func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	JSON(w, http.StatusOK, h.sink.Drain(userID))
}

// handleNotificationsWS streams notices to the SPA as they are pushed.
func (h *Handler) handleNotificationsWS(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	notices, cancel := h.sink.Subscribe(userID)
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-notices:
			if err := wsjson.Write(ctx, conn, n); err != nil {
				slog.Debug("websocket write", "error", err, "user_id", userID)
				return
			}
		}
	}
}
