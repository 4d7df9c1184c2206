package ws

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// NewUpgrader accepts handshakes from the configured origins. Requests
// without an Origin header come from non-browser clients and are allowed.
func NewUpgrader(allowedOrigins []string, development bool) websocket.Upgrader {
	allowAll := development || slices.Contains(allowedOrigins, "*")
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
}
