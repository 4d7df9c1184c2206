package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tush00nka/bbbab_chat/internal/pkg/auth"
	"tush00nka/bbbab_chat/internal/pkg/httputils"
)

type ctxKey int

const identityKey ctxKey = iota

var errMissingToken = errors.New("missing bearer token")

type Authenticator struct {
	tokens  *auth.TokenManager
	metrics *Metrics
}

func NewAuthenticator(tokens *auth.TokenManager, metrics *Metrics) *Authenticator {
	return &Authenticator{tokens: tokens, metrics: metrics}
}

// Authenticate requires "Authorization: Bearer <token>". A missing header is
// 401, a token that fails verification is 403.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return a.gate(next, false)
}

// AuthenticateUpgrade also accepts the token in the "token" query parameter,
// since browsers cannot set headers on a WebSocket handshake.
func (a *Authenticator) AuthenticateUpgrade(next http.Handler) http.Handler {
	return a.gate(next, true)
}

func (a *Authenticator) gate(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r, allowQuery)
		if err != nil {
			a.metrics.AuthRejected("missing_token")
			httputils.ResponseError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		id, err := a.tokens.Validate(token)
		if err != nil {
			a.metrics.AuthRejected("invalid_token")
			httputils.ResponseError(w, http.StatusForbidden, "forbidden", "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request, allowQuery bool) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errMissingToken
		}
		return strings.TrimSpace(token), nil
	}
	if allowQuery {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, nil
		}
	}
	return "", errMissingToken
}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}
