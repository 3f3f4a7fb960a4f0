package spotify

import "strings"

// NormalizeURI returns id as a fully qualified resource URI of the given
// kind. Inputs that already carry a scheme pass through unchanged, so the
// function is idempotent.
func NormalizeURI(kind, id string) string {
	if strings.Contains(id, ":") {
		return id
	}
	return "spotify:" + kind + ":" + id
}

// ResourceID extracts the bare resource id from a URI. Bare ids pass
// through unchanged.
func ResourceID(idOrURI string) string {
	if i := strings.LastIndex(idOrURI, ":"); i >= 0 {
		return idOrURI[i+1:]
	}
	return idOrURI
}
