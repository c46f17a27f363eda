package resolver

import (
	"context"
	"fmt"
	"io"

	"github.com/ncortes/newsenrich/fetch"
)

// RedirectStrategy simply requests the obfuscated link and observes where the
// redirect chain lands. Last in the chain: slowest and least reliable, but it
// needs nothing beyond a plain GET.
type RedirectStrategy struct {
	Client *fetch.Client
}

func (s *RedirectStrategy) Name() string { return "follow_redirects" }

func (s *RedirectStrategy) Attempt(ctx context.Context, link string) (string, error) {
	resp, err := s.Client.Get(ctx, link)
	if err != nil {
		return "", fmt.Errorf("failed to follow redirects: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	final := resp.Request.URL.String()
	if final == link {
		return "", nil
	}
	return final, nil
}
