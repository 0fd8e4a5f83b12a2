package http

import (
	"net/http"
	"strings"

	"github.com/lanternauth/lantern/internal/auth/service"
	"github.com/lanternauth/lantern/pkg/httpx"
	"github.com/lanternauth/lantern/pkg/oauthsdk"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// RevokeHandler serves POST /v1/oauth2/revoke (RFC 7009).
// Revocation is idempotent: unknown and already-revoked tokens return
// 200 just like a fresh revocation, so the endpoint cannot be used to
// probe token validity.
type RevokeHandler struct {
	Server *service.AuthorizationServer
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	params, err := parseRequestParams(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	token := strings.TrimSpace(params.Get("token"))

	if err := h.Server.Revoke(ctx, token); err != nil {
		log.Error("revocation failed", "err", err)
		oauthsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
