package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lanternauth/lantern/internal/auth/service"
	"github.com/lanternauth/lantern/pkg/httpx"
	"github.com/lanternauth/lantern/pkg/oauthsdk"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework,
// or an equivalent flat JSON object. Grant semantics live behind the
// AuthorizationServer; this handler only parses the body and maps
// outcomes to wire errors.
type TokenHandler struct {
	Server *service.AuthorizationServer
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	params, err := parseRequestParams(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	req := service.TokenRequest{
		GrantType:    strings.TrimSpace(params.Get("grant_type")),
		ClientID:     strings.TrimSpace(params.Get("client_id")),
		ClientSecret: params.Get("client_secret"),
		Params:       params,
	}

	pair, err := h.Server.RespondToAccessTokenRequest(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedGrantType):
			oauthsdk.ErrUnsupportedGrantType.WriteError(w)
		case errors.Is(err, service.ErrInvalidRequest):
			oauthsdk.ErrInvalidRequest.WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			oauthsdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidGrant):
			oauthsdk.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			oauthsdk.ErrInvalidScope.WriteError(w)
		default:
			log.Error("token exchange failed", "grant_type", req.GrantType, "err", err)
			oauthsdk.ErrServerError.WriteError(w)
		}
		return
	}

	response := oauthsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        strings.TrimSpace(pair.Scope),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
