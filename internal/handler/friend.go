package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/pkg/httputils"
	"tush00nka/bbbab_chat/internal/service"
)

type FriendHandler struct {
	friendService service.FriendService
	log           *zap.Logger
}

func NewFriendHandler(friendService service.FriendService, log *zap.Logger) *FriendHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FriendHandler{friendService: friendService, log: log}
}

func (h *FriendHandler) RegisterRoutes(private *mux.Router) {
	private.HandleFunc("/friends/request", h.request).Methods(http.MethodPost)
	private.HandleFunc("/friends/respond", h.respond).Methods(http.MethodPut)
	private.HandleFunc("/friends/pending", h.pending).Methods(http.MethodGet)
	private.HandleFunc("/friends/all", h.all).Methods(http.MethodGet)
}

type FriendRequest struct {
	ReceiverID uint `json:"receiverId"`
}

type RespondRequest struct {
	FriendshipID uint   `json:"friendshipId"`
	Status       string `json:"status" enums:"ACCEPTED,DECLINED"`
}

// @Summary Send friend request
// @ID friend-request
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FriendRequest true "Receiver"
// @Success 201 {object} model.Friendship
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 409 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /friends/request [post]
func (h *FriendHandler) request(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req FriendRequest
	if err := httputils.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}

	f, err := h.friendService.Request(r.Context(), id.UserID, req.ReceiverID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusCreated, f)
}

// @Summary Respond to friend request
// @Description Only the receiver of a PENDING request may resolve it. An ACCEPTED or DECLINED request is final; answering it again returns 404
// @ID friend-respond
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RespondRequest true "Decision"
// @Success 200 {object} model.Friendship
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /friends/respond [put]
func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req RespondRequest
	if err := httputils.DecodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}

	f, err := h.friendService.Respond(r.Context(), id.UserID, req.FriendshipID, req.Status)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, f)
}

// @Summary Pending friend requests
// @Description Requests addressed to the caller, newest first
// @ID friend-pending
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Friendship
// @Failure 500 {object} httputils.ErrorResponse
// @Router /friends/pending [get]
func (h *FriendHandler) pending(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	pending, err := h.friendService.Pending(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, pending)
}

// @Summary Friends
// @ID friend-all
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.FriendSummary
// @Failure 500 {object} httputils.ErrorResponse
// @Router /friends/all [get]
func (h *FriendHandler) all(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.Friends(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, friends)
}
