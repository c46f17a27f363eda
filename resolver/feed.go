package resolver

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/ncortes/newsenrich/fetch"
)

// FeedStrategy fetches the aggregator's per-article syndication feed and
// takes the first entry that links outside the aggregator. Feeds for older
// tokens carry the publisher link directly.
type FeedStrategy struct {
	Client *fetch.Client
}

func (s *FeedStrategy) Name() string { return "resolve_via_rss" }

func (s *FeedStrategy) Attempt(ctx context.Context, link string) (string, error) {
	token := extractToken(link)
	base := linkBase(link)
	if token == "" || base == "" {
		return "", nil
	}

	resp, err := s.Client.Get(ctx, base+"/rss/articles/"+token)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("article feed returned status %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse article feed: %w", err)
	}

	for _, item := range feed.Items {
		if IsExternalURL(item.Link) {
			return item.Link, nil
		}
	}
	return "", nil
}
