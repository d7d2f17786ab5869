package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Item is the normalized representation of one piece of content,
// regardless of whether it came from an HTML listing page or a feed.
// Items live only for the duration of a run; only the identity is
// ever persisted.
type Item struct {
	Identity string
	Title    string
	Link     string
	Summary  string
}

// Fingerprint derives the stable identity key recorded in the dedup
// store from the item's canonical key (URL or feed GUID). Truncated so
// state files stay compact but still greppable.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}
