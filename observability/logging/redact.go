package logging

import (
	"log/slog"
	"strings"
)

// abbreviateKeep is the number of leading and trailing characters kept when an
// address is shortened for logging.
const abbreviateKeep = 4

var redactionAllowlist = map[string]struct{}{
	"service":       {},
	"message":       {},
	"severity":      {},
	"timestamp":     {},
	"error":         {},
	"reason":        {},
	"component":     {},
	"engagement_id": {},
	"output":        {},
	"source":        {},
	"input":         {},
}

// IsAllowlisted reports whether the provided key is logged verbatim.
func IsAllowlisted(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := redactionAllowlist[normalized]
	return ok
}

// Abbreviate shortens long values to their first and last four characters,
// e.g. "GABC...WXYZ". Short values are returned unchanged.
func Abbreviate(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) <= 3*abbreviateKeep {
		return trimmed
	}
	return trimmed[:abbreviateKeep] + "..." + trimmed[len(trimmed)-abbreviateKeep:]
}

// MaskField returns a slog.Attr that abbreviates the value unless the key is
// allowlisted. Role and contract addresses go through here so full account
// identifiers never land in shared log sinks.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, Abbreviate(value))
}
