package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ParseIsolation maps a configuration value to a pgx isolation level.
// An empty value selects serializable.
func ParseIsolation(level string) (pgx.TxIsoLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "serializable":
		return pgx.Serializable, nil
	case "repeatable_read", "repeatable read":
		return pgx.RepeatableRead, nil
	case "read_committed", "read committed":
		return pgx.ReadCommitted, nil
	default:
		return "", fmt.Errorf("unsupported transaction isolation level: %q", level)
	}
}
