package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/pkg/httputils"
	"tush00nka/bbbab_chat/internal/service"
)

type ChatHandler struct {
	chatService service.ChatService
	log         *zap.Logger
}

func NewChatHandler(chatService service.ChatService, log *zap.Logger) *ChatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{chatService: chatService, log: log}
}

func (h *ChatHandler) RegisterRoutes(private *mux.Router) {
	private.HandleFunc("/chats/find/{friendId}", h.findChat).Methods(http.MethodGet)
	private.HandleFunc("/chats/{chatId}/presence", h.presence).Methods(http.MethodGet)
}

type PresenceResponse struct {
	ChatID uint   `json:"chatId"`
	Online []uint `json:"online"`
}

// @Summary Find or create chat
// @Description Returns the two-party chat with the friend, creating it on first contact. Messages are oldest first.
// @ID find-chat
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param friendId path int true "Friend user ID"
// @Success 200 {object} model.ChatView
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /chats/find/{friendId} [get]
func (h *ChatHandler) findChat(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	friendID, ok := parseID(mux.Vars(r)["friendId"])
	if !ok {
		badRequest(w, "friendId must be a positive integer")
		return
	}

	chat, err := h.chatService.FindOrCreate(r.Context(), id.UserID, friendID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, chat)
}

// @Summary Chat presence
// @Description Users whose realtime connections joined the chat room
// @ID chat-presence
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param chatId path int true "Chat ID"
// @Success 200 {object} PresenceResponse
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 403 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /chats/{chatId}/presence [get]
func (h *ChatHandler) presence(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	chatID, ok := parseID(mux.Vars(r)["chatId"])
	if !ok {
		badRequest(w, "chatId must be a positive integer")
		return
	}

	online, err := h.chatService.Presence(r.Context(), chatID, id.UserID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, PresenceResponse{ChatID: chatID, Online: online})
}
