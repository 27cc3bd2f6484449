// Package version centralizes version strings for the gateway's logical
// components. The versions are folded into Redis cache keys so that stale
// entries are invalidated automatically when the underlying logic changes:
// bumping a version here makes every old key unmatchable.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComponentVersions holds the version strings for the parts of the gateway
// whose output feeds the cache. Increment the relevant version before
// deploying a change to that component.
var ComponentVersions = struct {
	// Tools covers the per-tool pipeline configurations (query shapes,
	// canned texts, argument shapes).
	Tools string

	// Prompts covers the prompt-store fallback texts and the way prompts
	// are combined with user input and row data.
	Prompts string
}{
	Tools:   "v1.0",
	Prompts: "v1.0",
}

// CacheKey builds a version-aware Redis key: prefix, a SHA-256 of the
// logical key, and the current component versions.
//
// Example: "promptcache:a1b2c3...:tv1.0_pv1.0"
func CacheKey(prefix, key string) string {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	keyHash := hex.EncodeToString(hasher.Sum(nil))

	return fmt.Sprintf("%s:%s:t%s_p%s", prefix, keyHash,
		ComponentVersions.Tools, ComponentVersions.Prompts)
}
