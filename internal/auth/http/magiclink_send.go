package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lanternauth/lantern/internal/auth/service"
	"github.com/lanternauth/lantern/pkg/httpx"
	"github.com/lanternauth/lantern/pkg/oauthsdk"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// SendMagicLinkHandler serves POST /v1/auth/magic-link/send.
// The response body is the same whether or not the email matched a
// user, so the endpoint cannot be used to enumerate accounts.
type SendMagicLinkHandler struct {
	MagicLinkService *service.MagicLinkService
}

type sendMagicLinkRequest struct {
	Email    string `json:"email"`
	ClientID string `json:"clientId"`
	Scope    string `json:"scope,omitempty"`
}

func (h *SendMagicLinkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sendMagicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		oauthsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.Email == "" || req.ClientID == "" {
		oauthsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	scopes := httpx.ParseSpaceDelimitedFields(req.Scope)

	if err := h.MagicLinkService.Send(ctx, req.Email, req.ClientID, scopes); err != nil {
		log.Error("magic link send failed", "err", err)
		oauthsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, oauthsdk.MessageResponse{
		Message: service.SendResponseMessage,
	})
}
