package handler

import (
	"net/http"
	"strconv"

	"tush00nka/bbbab_chat/internal/pkg/httputils"
)

type PongResponse struct {
	Message string `json:"message"`
}

// Ping
// @Summary Ping the server
// @Description Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} PongResponse
// @Router /ping [get]
func Ping(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseJSON(w, http.StatusOK, PongResponse{Message: "pong"})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseError(w, http.StatusNotFound, "not_found", "route not found")
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
