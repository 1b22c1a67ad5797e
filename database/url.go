package database

import (
	"fmt"
	"net/url"
	"strings"
)

// ConstructDatabaseURL points baseURL at databaseName and defaults sslmode to disable.
// The base URL is returned untouched when databaseName is empty.
func ConstructDatabaseURL(baseURL, databaseName string) (string, error) {
	if strings.TrimSpace(databaseName) == "" {
		return baseURL, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	u.Path = "/" + strings.Trim(databaseName, "/")

	query := u.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
