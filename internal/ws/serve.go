package ws

import (
	"net/http"

	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/middleware"
	"tush00nka/bbbab_chat/internal/pkg/httputils"
)

// ServeWS upgrades an authenticated request and starts the connection pumps.
// It must sit behind Authenticator.AuthenticateUpgrade.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(h, conn, id)
	if !h.register(c) {
		conn.Close()
		return
	}
	c.log.Info("websocket connected")

	go c.WritePump()
	go c.ReadPump()
}
