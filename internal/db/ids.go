package db

import (
	"strings"

	"github.com/google/uuid"
)

// ID prefixes make identifiers self-describing in logs and URLs.
const (
	UserPrefix    = "U"
	ProjectPrefix = "P"
	SitePrefix    = "S"
	HistoryPrefix = "SA"
)

// NewID returns prefix followed by a random UUID in upper-case hex.
func NewID(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
