package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/Azure/go-ntlmssp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhis2-tool/internal/config"
)

func basicCreds() *config.Credentials {
	return &config.Credentials{
		Mode:     config.AuthBasic,
		BaseURL:  "https://hmis.example.org",
		Username: "alice",
		Password: "s3cret",
	}
}

func TestNew(t *testing.T) {
	t.Run("Basic Auth Plain Transport", func(t *testing.T) {
		client, err := New(basicCreds(), config.HTTPSettings{})
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, DefaultTimeout, client.Timeout)
		transport, ok := client.Transport.(*http.Transport)
		require.True(t, ok, "basic auth should use the plain transport")
		assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
	})

	t.Run("Timeout Override", func(t *testing.T) {
		client, err := New(basicCreds(), config.HTTPSettings{TimeoutSeconds: 5})
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.Timeout)
	})

	t.Run("TLS Skip Verify", func(t *testing.T) {
		client, err := New(basicCreds(), config.HTTPSettings{TlsSkipVerify: true})
		require.NoError(t, err)
		transport, ok := client.Transport.(*http.Transport)
		require.True(t, ok)
		assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
	})

	t.Run("Force HTTP1", func(t *testing.T) {
		client, err := New(basicCreds(), config.HTTPSettings{ForceHTTP1: true})
		require.NoError(t, err)
		transport, ok := client.Transport.(*http.Transport)
		require.True(t, ok)
		assert.False(t, transport.ForceAttemptHTTP2)
		assert.NotNil(t, transport.TLSNextProto, "ALPN map must be non-nil to disable HTTP/2")
		assert.Empty(t, transport.TLSNextProto)
	})

	t.Run("NTLM Wraps Transport", func(t *testing.T) {
		creds := basicCreds()
		creds.Mode = config.AuthNTLM
		client, err := New(creds, config.HTTPSettings{})
		require.NoError(t, err)
		negotiator, ok := client.Transport.(ntlmssp.Negotiator)
		require.True(t, ok, "ntlm should wrap the transport in a negotiator")
		_, ok = negotiator.RoundTripper.(*http.Transport)
		assert.True(t, ok)
	})

	t.Run("NTLM Requires Credentials", func(t *testing.T) {
		creds := basicCreds()
		creds.Mode = config.AuthNTLM
		creds.Password = ""
		_, err := New(creds, config.HTTPSettings{})
		assert.Error(t, err)
	})

	t.Run("OAuth2 Returns Token Client", func(t *testing.T) {
		creds := &config.Credentials{
			Mode:         config.AuthOAuth2,
			BaseURL:      "https://hmis.example.org",
			ClientID:     "cid",
			ClientSecret: "csec",
			TokenURL:     "https://auth.example.org/token",
		}
		client, err := New(creds, config.HTTPSettings{})
		require.NoError(t, err)
		require.NotNil(t, client)
		_, isPlain := client.Transport.(*http.Transport)
		assert.False(t, isPlain, "oauth2 client should carry a token-injecting transport")
	})

	t.Run("OAuth2 Requires Client Fields", func(t *testing.T) {
		creds := &config.Credentials{Mode: config.AuthOAuth2, ClientID: "cid"}
		_, err := New(creds, config.HTTPSettings{})
		assert.Error(t, err)
	})

	t.Run("Unknown Mode", func(t *testing.T) {
		creds := basicCreds()
		creds.Mode = "kerberos"
		_, err := New(creds, config.HTTPSettings{})
		assert.Error(t, err)
	})
}
