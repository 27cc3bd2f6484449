// Package prompt resolves symbolic prompt keys ("<tool>_pre", "<tool>_post",
// analysis keys) to prompt text. Resolution order: Redis cache, the remote
// SystemPrompt Management service, then a fixed local fallback. Resolve
// never fails — the pipelines must always get usable prompt text.
package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wealthai-labs/crm-gateway/internal/version"
)

const (
	cachePrefix     = "promptcache"
	defaultCacheTTL = 1 * time.Hour
	requestTimeout  = 10 * time.Second
)

// Fallback prompts, used on cache-and-remote miss. Which one applies depends
// on the pipeline stage the key denotes.
const (
	fallbackPre = `You are an argument standardization agent. Convert the input, whatever its
form, into the standard JSON structure for this tool. Respond with JSON only,
no explanations.`

	fallbackPost = `Format the following result data as concise, readable text for a business
user. Keep identifiers visible and group related rows together.`
)

// Store is the prompt store client. The Redis cache is optional: a nil
// client disables caching without changing behavior.
type Store struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
}

func NewStore(baseURL string, cache *redis.Client) *Store {
	return &Store{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      cache,
		cacheTTL:   defaultCacheTTL,
	}
}

// Resolve returns the prompt text for key. It never returns an error; on
// any failure the stage-appropriate fallback text is returned instead.
func (s *Store) Resolve(ctx context.Context, key string) string {
	cacheKey := version.CacheKey(cachePrefix, key)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			return cached
		}
	}

	text, err := s.fetch(ctx, key)
	if err != nil {
		log.Printf("[prompt.Store] falling back for key %q: %v", key, err)
		return Fallback(key)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, text, s.cacheTTL).Err(); err != nil {
			log.Printf("[prompt.Store] failed to cache key %q: %v", key, err)
		}
	}
	return text
}

func (s *Store) fetch(ctx context.Context, key string) (string, error) {
	if s.baseURL == "" {
		return "", fmt.Errorf("no prompt store URL configured")
	}

	url := fmt.Sprintf("%s/api/system-prompts/%s", s.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prompt store returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var payload struct {
		PromptText string `json:"prompt_text"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode prompt store response: %w", err)
	}
	if payload.PromptText == "" {
		return "", fmt.Errorf("prompt store returned empty prompt_text for %q", key)
	}
	return payload.PromptText, nil
}

// Fallback returns the built-in prompt for a key: the standardization
// instruction for "_pre" keys, the formatting instruction for everything
// else (post and analysis stages both render data as text).
func Fallback(key string) string {
	if strings.HasSuffix(key, "_pre") {
		return fallbackPre
	}
	return fallbackPost
}
