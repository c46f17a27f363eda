package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ncortes/newsenrich/fetch"
)

// DecoderStrategy resolves a link through the aggregator's own decoding
// endpoint. It scrapes the signature and timestamp parameters off the article
// interstitial page, then posts a batch RPC request whose response carries
// the publisher URL. This is the primary strategy; it is the only one that
// works for the newer opaque token format.
type DecoderStrategy struct {
	Client *fetch.Client
}

func (s *DecoderStrategy) Name() string { return "gnewsdecoder" }

func (s *DecoderStrategy) Attempt(ctx context.Context, link string) (string, error) {
	token := extractToken(link)
	base := linkBase(link)
	if token == "" || base == "" {
		return "", nil
	}

	signature, timestamp, err := s.decodingParams(ctx, base, token)
	if err != nil {
		return "", err
	}
	if signature == "" || timestamp == "" {
		return "", nil
	}

	return s.decode(ctx, base, token, signature, timestamp)
}

// decodingParams fetches the interstitial page for a token and reads the
// signature and timestamp attributes the decode RPC requires.
func (s *DecoderStrategy) decodingParams(ctx context.Context, base, token string) (signature, timestamp string, err error) {
	resp, err := s.Client.Get(ctx, base+"/rss/articles/"+token)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", "", fmt.Errorf("article page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse article page: %w", err)
	}

	sel := doc.Find("c-wiz > div[jscontroller]").First()
	signature, _ = sel.Attr("data-n-a-sg")
	timestamp, _ = sel.Attr("data-n-a-ts")
	return signature, timestamp, nil
}

// decode posts the batch RPC and extracts the publisher URL from the
// response envelope.
func (s *DecoderStrategy) decode(ctx context.Context, base, token, signature, timestamp string) (string, error) {
	inner := fmt.Sprintf(
		`["garturlreq",[["X","X",["X","X"],null,null,1,1,"US:en",null,1,null,null,null,null,null,0,1],"X","X",1,[1,1,1],1,1,null,0,0,null,0],%q,%s,%q]`,
		token, timestamp, signature,
	)
	payload, err := json.Marshal([][]any{{"Fbv4je", inner, nil, "generic"}})
	if err != nil {
		return "", fmt.Errorf("failed to build decode payload: %w", err)
	}
	form := "f.req=" + url.QueryEscape("["+string(payload)+"]")

	resp, err := s.Client.Post(ctx, base+"/_/DotsSplashUi/data/batchexecute",
		"application/x-www-form-urlencoded;charset=UTF-8", form)
	if err != nil {
		return "", fmt.Errorf("failed to post decode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("decode endpoint returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read decode response: %w", err)
	}
	return parseDecodeResponse(raw)
}

// parseDecodeResponse digs the publisher URL out of the batch RPC envelope.
// The response is an anti-hijacking prefix line, then a blank-line-separated
// JSON array whose first element wraps a second JSON document; the URL is the
// second element of that inner document.
func parseDecodeResponse(raw []byte) (string, error) {
	parts := strings.Split(string(raw), "\n\n")
	if len(parts) < 2 {
		return "", fmt.Errorf("unexpected decode response shape")
	}

	var envelope []any
	if err := json.Unmarshal([]byte(parts[1]), &envelope); err != nil {
		return "", fmt.Errorf("failed to parse decode envelope: %w", err)
	}
	if len(envelope) == 0 {
		return "", fmt.Errorf("empty decode envelope")
	}

	outer, ok := envelope[0].([]any)
	if !ok || len(outer) < 3 {
		return "", fmt.Errorf("unexpected decode envelope shape")
	}
	embedded, ok := outer[2].(string)
	if !ok {
		return "", fmt.Errorf("decode envelope missing payload")
	}

	var decoded []any
	if err := json.Unmarshal([]byte(embedded), &decoded); err != nil {
		return "", fmt.Errorf("failed to parse decode payload: %w", err)
	}
	if len(decoded) < 2 {
		return "", fmt.Errorf("decode payload missing URL")
	}
	direct, ok := decoded[1].(string)
	if !ok {
		return "", fmt.Errorf("decode payload URL is not a string")
	}
	return direct, nil
}
