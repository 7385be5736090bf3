package config

import (
	"fmt"
	"strings"
)

var (
	knownLogLevels     = []string{"", "none", "error", "warn", "warning", "info", "debug"}
	knownAuthTypes     = []string{"", AuthBasic, AuthNTLM, AuthOAuth2}
	knownOutputFormats = []string{"", "csv", "json"}
)

func isValidEnumValue(value string, allowedValues []string) bool {
	checkValue := strings.ToLower(value)
	for _, allowed := range allowedValues {
		if checkValue == allowed {
			return true
		}
	}
	return false
}

// ValidateSettings checks the optional settings file contents.
func ValidateSettings(s *Settings) error {
	var allErrors []string
	if !isValidEnumValue(s.Logging.Level, knownLogLevels) {
		allErrors = append(allErrors, fmt.Sprintf("- Settings.Logging.Level: invalid log level '%s', must be one of %v", s.Logging.Level, knownLogLevels[1:]))
	}
	if s.HTTP.TimeoutSeconds < 0 {
		allErrors = append(allErrors, "- Settings.HTTP.TimeoutSeconds: cannot be negative")
	}
	if !isValidEnumValue(s.Output.Format, knownOutputFormats) {
		allErrors = append(allErrors, fmt.Sprintf("- Settings.Output.Format: invalid format '%s', must be csv or json", s.Output.Format))
	}
	if len(allErrors) > 0 {
		return fmt.Errorf("%w: settings validation failed:\n%s", ErrConfiguration, strings.Join(allErrors, "\n"))
	}
	return nil
}

// validateCountryEntry checks one params file entry for the fields its auth
// type requires. Returns a list of problems, empty when the entry is usable.
func validateCountryEntry(country string, entry *CountryCredentials) []string {
	var errs []string
	prefix := fmt.Sprintf("- entry '%s'", country)

	if entry.BaseURL == "" {
		errs = append(errs, prefix+": baseUrl is required")
	}

	authType := strings.ToLower(entry.AuthType)
	if !isValidEnumValue(authType, knownAuthTypes) {
		errs = append(errs, fmt.Sprintf("%s: invalid authType '%s'", prefix, entry.AuthType))
		return errs
	}

	switch authType {
	case "", AuthBasic, AuthNTLM:
		if entry.Username == "" || entry.Password == "" {
			errs = append(errs, prefix+": username and password are required")
		}
	case AuthOAuth2:
		for field, value := range map[string]string{
			"clientId":     entry.ClientID,
			"clientSecret": entry.ClientSecret,
			"tokenUrl":     entry.TokenURL,
		} {
			if value == "" {
				errs = append(errs, fmt.Sprintf("%s: %s is required for oauth2", prefix, field))
			}
		}
	}
	return errs
}
