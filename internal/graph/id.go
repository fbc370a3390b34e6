package graph

import "strings"

// placeholderPrefix marks targets of dangling edges.
const placeholderPrefix = "unresolved:"

// NodeID derives the stable node identifier from type and qualified
// location. Repeated builds over unchanged source yield identical IDs, which
// is what makes per-file replacement and idempotent rebuilds possible.
func NodeID(t NodeType, filePath, qualifiedName string) string {
	return string(t) + ":" + filePath + ":" + qualifiedName
}

// PlaceholderID derives the placeholder target for a reference that could
// not be resolved. Deterministic so rebuilds produce the same dangling edge.
func PlaceholderID(reference string) string {
	return placeholderPrefix + reference
}

// IsPlaceholder reports whether id is a placeholder target.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// PlaceholderReference returns the original reference name behind a
// placeholder ID.
func PlaceholderReference(id string) string {
	return strings.TrimPrefix(id, placeholderPrefix)
}
