package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"dhis2-tool/internal/config"
	"dhis2-tool/internal/logging"

	"github.com/Azure/go-ntlmssp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// New creates an *http.Client configured for the resolved credentials.
// Basic and token auth use the base transport with headers applied per
// request; ntlm wraps the transport in a negotiator, and oauth2 returns a
// client that performs the client-credentials flow itself.
func New(creds *config.Credentials, httpCfg config.HTTPSettings) (*http.Client, error) {
	timeout := DefaultTimeout
	if httpCfg.TimeoutSeconds > 0 {
		timeout = time.Duration(httpCfg.TimeoutSeconds) * time.Second
	}

	baseTransport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: httpCfg.TlsSkipVerify,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if httpCfg.ForceHTTP1 {
		logging.Logf(logging.Info, "Forcing HTTP/1.1 for %s", creds.BaseURL)
		// Disable HTTP/2 negotiation via ALPN
		baseTransport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		baseTransport.ForceAttemptHTTP2 = false
	}
	if httpCfg.TlsSkipVerify {
		logging.Logf(logging.Info, "TLS certificate verification is DISABLED for %s", creds.BaseURL)
	}

	var finalTransport http.RoundTripper = baseTransport

	switch creds.Mode {
	case config.AuthNTLM:
		logging.Logf(logging.Debug, "Configuring NTLM transport for %s", creds.BaseURL)
		if creds.Username == "" || creds.Password == "" {
			return nil, fmt.Errorf("ntlm authentication requires username and password")
		}
		finalTransport = ntlmssp.Negotiator{RoundTripper: baseTransport}

	case config.AuthOAuth2:
		logging.Logf(logging.Debug, "Configuring OAuth2 client credentials flow for %s", creds.BaseURL)
		if creds.ClientID == "" || creds.ClientSecret == "" || creds.TokenURL == "" {
			return nil, fmt.Errorf("oauth2 authentication requires clientId, clientSecret, and tokenUrl")
		}
		oauthConfig := clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     creds.TokenURL,
			Scopes:       strings.Fields(creds.Scope),
		}
		// Route the token exchange through the same base transport and timeout.
		ctxClient := &http.Client{
			Transport: baseTransport,
			Timeout:   timeout,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, ctxClient)
		return oauthConfig.Client(ctx), nil

	case config.AuthBasic, config.AuthToken:
		// Headers applied per request.

	default:
		return nil, fmt.Errorf("unsupported authentication mode '%s' for client creation", creds.Mode)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: finalTransport,
	}, nil
}
