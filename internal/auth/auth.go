package auth

import (
	"fmt"
	"net/http"

	"dhis2-tool/internal/config"
)

// ApplyHeaders sets authentication material that travels in request headers.
// It handles token and basic auth directly. NTLM expects initial basic
// credentials on the request with the transport doing the negotiation, and
// OAuth2 is handled entirely by the client transport.
func ApplyHeaders(req *http.Request, creds *config.Credentials) error {
	switch creds.Mode {
	case config.AuthToken:
		if creds.Token == "" {
			return fmt.Errorf("token authentication selected, but no token was resolved")
		}
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	case config.AuthBasic, config.AuthNTLM:
		if creds.Username == "" || creds.Password == "" {
			return fmt.Errorf("%s authentication selected, but username or password is empty", creds.Mode)
		}
		req.SetBasicAuth(creds.Username, creds.Password)
	case config.AuthOAuth2:
		// Bearer token injected by the oauth2 transport.
	default:
		return fmt.Errorf("unsupported authentication mode: %s", creds.Mode)
	}
	return nil
}
