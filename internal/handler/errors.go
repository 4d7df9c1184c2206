package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/middleware"
	"tush00nka/bbbab_chat/internal/model"
	"tush00nka/bbbab_chat/internal/pkg/auth"
	"tush00nka/bbbab_chat/internal/pkg/httputils"
)

// writeError maps service errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, log *zap.Logger, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		httputils.ResponseError(w, http.StatusBadRequest, "validation_error", verr.Error())
	case errors.Is(err, model.ErrValidation):
		httputils.ResponseError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, model.ErrFriendRequestNotFound):
		httputils.ResponseError(w, http.StatusNotFound, err.Error(), "no pending friend request with that id is addressed to you")
	case errors.Is(err, model.ErrNotFound):
		httputils.ResponseError(w, http.StatusNotFound, err.Error(), "resource not found")
	case errors.Is(err, model.ErrInvalidCredentials):
		httputils.ResponseError(w, http.StatusUnauthorized, err.Error(), "invalid email or password")
	case errors.Is(err, model.ErrUnauthorized):
		httputils.ResponseError(w, http.StatusUnauthorized, err.Error(), "authentication required")
	case errors.Is(err, model.ErrNotParticipant):
		httputils.ResponseError(w, http.StatusForbidden, err.Error(), "you are not a participant of this chat")
	case errors.Is(err, model.ErrForbidden):
		httputils.ResponseError(w, http.StatusForbidden, err.Error(), "forbidden")
	case errors.Is(err, model.ErrUsernameTaken):
		httputils.ResponseError(w, http.StatusConflict, err.Error(), "username already taken")
	case errors.Is(err, model.ErrEmailTaken):
		httputils.ResponseError(w, http.StatusConflict, err.Error(), "email already registered")
	case errors.Is(err, model.ErrFriendshipExists):
		httputils.ResponseError(w, http.StatusConflict, err.Error(), "a friendship between these users already exists")
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		httputils.ResponseError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func badRequest(w http.ResponseWriter, message string) {
	httputils.ResponseError(w, http.StatusBadRequest, "validation_error", message)
}

// identity returns the caller set by the Authenticate middleware.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	}
	return id, ok
}
