package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lanternauth/lantern/pkg/oauthsdk"
)

var errUnsupportedContentType = errors.New("unsupported content type")

// parseRequestParams reads the request body into url.Values. The OAuth2
// endpoints accept both the form encoding RFC 6749 specifies and a flat
// JSON object carrying the same parameter names.
func parseRequestParams(r *http.Request) (url.Values, error) {
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		params := url.Values{}
		for key, value := range body {
			switch v := value.(type) {
			case string:
				params.Set(key, v)
			case float64:
				params.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
			case bool:
				params.Set(key, strconv.FormatBool(v))
			}
		}
		return params, nil
	case ct == "" || strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.Form, nil
	default:
		return nil, errUnsupportedContentType
	}
}

// writeParseError maps body parsing failures onto wire errors.
func writeParseError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnsupportedContentType) {
		oauthsdk.ErrInvalidContentType.WriteError(w)
		return
	}
	oauthsdk.ErrInvalidRequestBody.WriteError(w)
}
