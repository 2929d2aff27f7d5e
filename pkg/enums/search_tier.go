package enums

import "fmt"

// SearchTier records which full-text capability was available when the schema
// was created. Persisted once so the query layer never re-probes.
type SearchTier string

const (
	// SearchTierFTS5 is an external-content FTS5 table bound to videos by rowid.
	SearchTierFTS5 SearchTier = "fts5"
	// SearchTierFTS4 is a standalone FTS4 table keyed by video id.
	SearchTierFTS4 SearchTier = "fts4"
	// SearchTierShadow is a plain shadow table with a LIKE-scanned text column.
	SearchTierShadow SearchTier = "shadow"
)

var validSearchTiers = []SearchTier{
	SearchTierFTS5,
	SearchTierFTS4,
	SearchTierShadow,
}

// IsValid checks whether the given tier matches the canonical enum.
func (t SearchTier) IsValid() bool {
	for _, candidate := range validSearchTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSearchTier converts raw strings into SearchTier.
func ParseSearchTier(value string) (SearchTier, error) {
	for _, candidate := range validSearchTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid search tier %q", value)
}
