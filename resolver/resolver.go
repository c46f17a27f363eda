// Package resolver turns obfuscated aggregator links into direct article
// URLs. Resolution tries an ordered chain of strategies; the first strategy
// that produces a valid external URL wins, and the outcome is cached so a
// link is never resolved twice.
package resolver

import (
	"context"
	"errors"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ncortes/newsenrich/cache"
	"github.com/ncortes/newsenrich/fetch"
)

// ErrUnresolved is returned when every strategy has been exhausted without a
// usable direct link.
var ErrUnresolved = errors.New("no resolution strategy succeeded")

// FailureMethod is recorded in the cache when resolution exhausts the chain.
const FailureMethod = "no_resolution"

// DefaultStrategyTimeout bounds each individual strategy attempt.
const DefaultStrategyTimeout = 20 * time.Second

// Resolution is a successful resolution outcome.
type Resolution struct {
	URL       string
	Method    string
	FromCache bool
}

// Strategy is one technique for turning an obfuscated link into a direct
// article link. Attempt returns an empty string when it has no answer; an
// error is also treated as "no answer" and advances the chain, never aborts
// it.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, link string) (string, error)
}

// Resolver runs the strategy chain with cache consultation.
type Resolver struct {
	store      *cache.Store
	strategies []Strategy
	timeout    time.Duration
}

// New creates a resolver with the standard strategy chain: the specialized
// aggregator decoder, manual token decoding, the syndication feed entry, and
// plain redirect following.
func New(store *cache.Store, client *fetch.Client) *Resolver {
	if client == nil {
		client = fetch.NewClient(0)
	}
	return &Resolver{
		store: store,
		strategies: []Strategy{
			&DecoderStrategy{Client: client},
			&TokenStrategy{},
			&FeedStrategy{Client: client},
			&RedirectStrategy{Client: client},
		},
		timeout: DefaultStrategyTimeout,
	}
}

// NewWithStrategies creates a resolver with an explicit chain. Used by tests
// and callers that need to reorder or stub strategies.
func NewWithStrategies(store *cache.Store, timeout time.Duration, strategies ...Strategy) *Resolver {
	if timeout <= 0 {
		timeout = DefaultStrategyTimeout
	}
	return &Resolver{store: store, strategies: strategies, timeout: timeout}
}

// Resolve produces the direct article URL for an obfuscated link. The cache
// is consulted before any network strategy; a definitive success or the
// exhaustion of the whole chain is written back to the cache.
func (r *Resolver) Resolve(ctx context.Context, link string) (Resolution, error) {
	if strings.TrimSpace(link) == "" {
		return Resolution{}, ErrUnresolved
	}

	if hit, ok := r.store.Lookup(link); ok {
		return Resolution{URL: hit.DirectURL, Method: hit.Method, FromCache: true}, nil
	}

	for _, strategy := range r.strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		direct, err := strategy.Attempt(attemptCtx, link)
		cancel()

		// Transport errors are "no answer": fall through to the next
		// strategy.
		if err != nil || direct == "" || !IsExternalURL(direct) {
			continue
		}

		// A cache write failure never costs a resolution the chain
		// already won; the link just gets re-resolved next run.
		if err := r.store.Put(link, direct, strategy.Name(), true); err != nil {
			log.Printf("WARN: failed to record resolution for %s: %v", link, err)
		}
		return Resolution{URL: direct, Method: strategy.Name()}, nil
	}

	if err := r.store.Put(link, "", FailureMethod, false); err != nil {
		log.Printf("WARN: failed to record resolution failure for %s: %v", link, err)
	}
	return Resolution{}, ErrUnresolved
}

// Domains that can never be a final article destination.
var blockedDomains = []string{
	"google.", "gstatic.", "googleusercontent.",
	"googlevideo.", "youtube.", "youtu.be",
}

// IsExternalURL reports whether a candidate is an absolute http(s) URL that
// points outside the aggregator's own properties.
func IsExternalURL(candidate string) bool {
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		return false
	}

	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := strings.ToLower(parsed.Host)
	for _, blocked := range blockedDomains {
		if strings.Contains(host, blocked) {
			return false
		}
	}
	return true
}

var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/articles/([^?/]+)`),
	regexp.MustCompile(`/read/([^?/]+)`),
	regexp.MustCompile(`articles%2F([^&]+)`),
	regexp.MustCompile(`read%2F([^&]+)`),
}

// extractToken pulls the encoded article token out of an obfuscated link.
func extractToken(link string) string {
	for _, pattern := range tokenPatterns {
		if m := pattern.FindStringSubmatch(link); m != nil {
			token, err := url.QueryUnescape(m[1])
			if err != nil {
				return m[1]
			}
			return token
		}
	}
	return ""
}

// linkBase returns the scheme://host prefix of a link, so strategies can
// derive the aggregator's feed and decode endpoints from the link itself.
func linkBase(link string) string {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
