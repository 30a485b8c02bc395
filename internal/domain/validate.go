package domain

import (
	"fmt"
	"net/url"
)

// ValidateEnvironment checks required fields on an Environment.
func ValidateEnvironment(e Environment) error {
	if e.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", e.BaseURL)
	}
	if e.CustomerAlias == "" {
		return fmt.Errorf("customer_alias is required")
	}
	if e.DatabaseAlias == "" {
		return fmt.Errorf("database_alias is required")
	}
	if e.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if e.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if e.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// ValidateFormNames rejects an empty list and blank or duplicate names.
func ValidateFormNames(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("at least one form name is required")
	}
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if n == "" {
			return fmt.Errorf("form name %d is empty", i)
		}
		if seen[n] {
			return fmt.Errorf("duplicate form name %q", n)
		}
		seen[n] = true
	}
	return nil
}
