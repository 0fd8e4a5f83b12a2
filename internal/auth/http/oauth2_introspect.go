package http

import (
	"net/http"
	"strings"

	"github.com/lanternauth/lantern/internal/auth/service"
	"github.com/lanternauth/lantern/pkg/httpx"
	"github.com/lanternauth/lantern/pkg/oauthsdk"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// IntrospectHandler serves POST /v1/oauth2/introspect (RFC 7662).
// Unknown, expired, and revoked tokens all produce {"active": false}
// with a 200; only infrastructure failures surface as errors.
type IntrospectHandler struct {
	Server *service.AuthorizationServer
}

func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	params, err := parseRequestParams(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	token := strings.TrimSpace(params.Get("token"))
	hint := strings.TrimSpace(params.Get("token_type_hint"))

	info, err := h.Server.Introspect(ctx, token, hint)
	if err != nil {
		log.Error("introspection failed", "err", err)
		oauthsdk.ErrServerError.WriteError(w)
		return
	}

	if !info.Active {
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, oauthsdk.IntrospectionResponse{Active: false})
		return
	}

	response := oauthsdk.IntrospectionResponse{
		Active:    true,
		Scope:     info.Scope,
		ClientID:  info.ClientID,
		TokenType: info.TokenType,
		Sub:       info.Sub,
		Exp:       info.ExpiresAt.Unix(),
		Iat:       info.IssuedAt.Unix(),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
