package config

// Auth modes a run can resolve to.
const (
	AuthBasic  = "basic"
	AuthToken  = "token"
	AuthNTLM   = "ntlm"
	AuthOAuth2 = "oauth2"
)

// Environment variables consumed by the credential resolver.
const (
	EnvParamsFile = "DHIS2_PARAMS_FILE"
	EnvAuthToken  = "DHIS2_AUTH_TOKEN"
)

// Settings holds the optional tool configuration file contents.
type Settings struct {
	Logging LoggingSettings `yaml:"logging"`
	HTTP    HTTPSettings    `yaml:"http"`
	Output  OutputSettings  `yaml:"output"`
}

// LoggingSettings holds logging settings.
type LoggingSettings struct {
	Level string `yaml:"level"`
}

// HTTPSettings holds transport-level settings.
type HTTPSettings struct {
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	TlsSkipVerify  bool `yaml:"tls_skip_verify,omitempty"`
	ForceHTTP1     bool `yaml:"force_http1,omitempty"`
}

// OutputSettings holds default output destination and format, both
// overridable from the command line.
type OutputSettings struct {
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// CountryCredentials is one entry of the DHIS2 params file, keyed by country.
// Username/password cover basic and ntlm auth; the client* fields are only
// consulted when AuthType is "oauth2".
type CountryCredentials struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	BaseURL      string `json:"baseUrl"`
	AuthType     string `json:"authType,omitempty"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	TokenURL     string `json:"tokenUrl,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Overrides carries the command-line inputs to credential resolution.
type Overrides struct {
	Country   string
	BaseURL   string
	AuthToken string
}

// Credentials is the fully resolved authentication material for one run.
// Exactly one auth mode is active; BaseURL is always set and normalized
// (scheme present, no trailing slash).
type Credentials struct {
	Mode    string
	BaseURL string

	// basic / ntlm
	Username string
	Password string

	// token
	Token string

	// oauth2 client credentials
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scope        string
}
