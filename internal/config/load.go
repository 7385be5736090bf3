package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"dhis2-tool/internal/util"
)

// ErrConfiguration marks any failure to assemble usable credentials or
// settings: missing env var, unreadable or malformed files, unknown country
// keys, incomplete entries.
var ErrConfiguration = errors.New("configuration error")

// DefaultSettings returns the settings used when no config file is present.
func DefaultSettings() *Settings {
	return &Settings{}
}

// LoadSettings reads, parses, and validates the optional YAML settings file.
func LoadSettings(filename string) (*Settings, error) {
	fileBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read settings file '%s': %v", ErrConfiguration, filename, err)
	}

	var settings Settings
	if err := yaml.Unmarshal(fileBytes, &settings); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML in '%s': %v", ErrConfiguration, filename, err)
	}

	if err := ValidateSettings(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// LoadParamsFile reads the credentials JSON file and validates every entry
// eagerly, so a malformed entry fails the run even when another country was
// requested. Field values may reference environment variables.
func LoadParamsFile(path string) (map[string]CountryCredentials, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read params file '%s': %v", ErrConfiguration, path, err)
	}

	var params map[string]CountryCredentials
	if err := json.Unmarshal(fileBytes, &params); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON in '%s': %v", ErrConfiguration, path, err)
	}

	for country, entry := range params {
		entry.Username = util.ExpandEnvUniversal(entry.Username)
		entry.Password = util.ExpandEnvUniversal(entry.Password)
		entry.BaseURL = util.ExpandEnvUniversal(entry.BaseURL)
		entry.ClientID = util.ExpandEnvUniversal(entry.ClientID)
		entry.ClientSecret = util.ExpandEnvUniversal(entry.ClientSecret)
		entry.TokenURL = util.ExpandEnvUniversal(entry.TokenURL)
		params[country] = entry

		if errs := validateCountryEntry(country, &entry); len(errs) > 0 {
			return nil, fmt.Errorf("%w: params file '%s' validation failed:\n%s",
				ErrConfiguration, path, strings.Join(errs, "\n"))
		}
	}
	return params, nil
}

func loadParamsFromEnv() (map[string]CountryCredentials, error) {
	path := os.Getenv(EnvParamsFile)
	if path == "" {
		return nil, fmt.Errorf("%w: %s environment variable is not set", ErrConfiguration, EnvParamsFile)
	}
	return LoadParamsFile(path)
}

// ResolveCredentials merges the environment, the params file, and command-line
// overrides into one Credentials value. A token (flag, then env fallback)
// overrides country credentials; a base_url flag overrides the file's baseUrl.
func ResolveCredentials(o Overrides) (*Credentials, error) {
	token := o.AuthToken
	if token == "" {
		token = os.Getenv(EnvAuthToken)
	}

	if token != "" {
		base := o.BaseURL
		if base == "" && o.Country != "" {
			params, err := loadParamsFromEnv()
			if err != nil {
				return nil, err
			}
			entry, ok := params[o.Country]
			if !ok {
				return nil, fmt.Errorf("%w: country '%s' not found in params file", ErrConfiguration, o.Country)
			}
			base = entry.BaseURL
		}
		if base == "" {
			return nil, fmt.Errorf("%w: token auth requires -base_url or a -country with a baseUrl entry", ErrConfiguration)
		}
		return &Credentials{Mode: AuthToken, BaseURL: NormalizeBaseURL(base), Token: token}, nil
	}

	if o.Country == "" {
		return nil, fmt.Errorf("%w: neither an auth token nor a -country was provided", ErrConfiguration)
	}

	params, err := loadParamsFromEnv()
	if err != nil {
		return nil, err
	}
	entry, ok := params[o.Country]
	if !ok {
		return nil, fmt.Errorf("%w: country '%s' not found in params file", ErrConfiguration, o.Country)
	}

	base := entry.BaseURL
	if o.BaseURL != "" {
		base = o.BaseURL
	}

	creds := &Credentials{
		Mode:     strings.ToLower(entry.AuthType),
		BaseURL:  NormalizeBaseURL(base),
		Username: entry.Username,
		Password: entry.Password,
	}
	if creds.Mode == "" {
		creds.Mode = AuthBasic
	}
	if creds.Mode == AuthOAuth2 {
		creds.ClientID = entry.ClientID
		creds.ClientSecret = entry.ClientSecret
		creds.TokenURL = entry.TokenURL
		creds.Scope = entry.Scope
	}
	return creds, nil
}

// NormalizeBaseURL assumes https when no scheme is given and strips any
// trailing slash, so API paths can be appended directly.
func NormalizeBaseURL(base string) string {
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}
