package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/model"
	"tush00nka/bbbab_chat/internal/pkg/httputils"
	"tush00nka/bbbab_chat/internal/service"
)

const maxSignupBody = service.MaxAvatarSize + 1<<20

type UserHandler struct {
	userService service.UserService
	log         *zap.Logger
}

func NewUserHandler(userService service.UserService, log *zap.Logger) *UserHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{userService: userService, log: log}
}

// RegisterRoutes mounts signup and login on public and the search endpoint
// on the authenticated router.
func (h *UserHandler) RegisterRoutes(public, private *mux.Router) {
	public.HandleFunc("/signup", h.signup).Methods(http.MethodPost)
	public.HandleFunc("/login", h.login).Methods(http.MethodPost)
	private.HandleFunc("/users/find", h.findUsers).Methods(http.MethodGet)
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Sign up
// @Description Create an account. Multipart form with an optional image in "avatar"; JSON without avatar is also accepted.
// @ID signup
// @Tags auth
// @Accept mpfd
// @Accept json
// @Produce json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param avatar formData file false "Avatar image, up to 5 MiB"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 409 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /signup [post]
func (h *UserHandler) signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSignupBody)

	var in service.SignupInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				badRequest(w, "avatar exceeds 5 MiB")
				return
			}
			badRequest(w, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		in.Username = r.FormValue("username")
		in.Email = r.FormValue("email")
		in.Password = r.FormValue("password")

		file, _, err := r.FormFile("avatar")
		switch {
		case err == nil:
			defer file.Close()
			in.Avatar = file
		case !errors.Is(err, http.ErrMissingFile):
			badRequest(w, "invalid avatar upload")
			return
		}
	case "application/json":
		var req SignupRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			badRequest(w, "invalid request format")
			return
		}
		in.Username, in.Email, in.Password = req.Username, req.Email, req.Password
	default:
		badRequest(w, "expected multipart/form-data or application/json")
		return
	}

	res, err := h.userService.Signup(r.Context(), in)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusCreated, res)
}

// @Summary Log in
// @Description Exchange email and password for a token
// @ID login
// @Tags auth
// @Accept json
// @Produce json
// @Param loginData body LoginRequest true "Login data"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /login [post]
func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputils.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request format")
		return
	}

	res, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, res)
}

// @Summary Find users
// @Description Case-insensitive username search, excluding the caller, at most 20 results
// @ID find-users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username query string true "Part of a username"
// @Success 200 {array} model.UserSummary
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /users/find [get]
func (h *UserHandler) findUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	users, err := h.userService.Search(r.Context(), id.UserID, r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if users == nil {
		users = []model.UserSummary{}
	}
	httputils.ResponseJSON(w, http.StatusOK, users)
}
