package resolver

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"
)

// TokenStrategy decodes the article token locally, without any network
// request. Older tokens are base64 wrappers around the publisher URL; newer
// opaque tokens fail here and fall through to the remaining strategies.
type TokenStrategy struct{}

func (s *TokenStrategy) Name() string { return "decode_token" }

// Prefixes the encoder prepends to the URL bytes inside the token.
var tokenURLPrefixes = []string{"CBM", "CAE", "CAI", "CB0"}

// Only printable URL characters: decoded tokens are protobuf-like binary
// with the URL embedded as one field, so the match must stop at the first
// non-URL byte.
var decodedURLPattern = regexp.MustCompile(`https?://[A-Za-z0-9._~:/?#@!$&'()*+,;=%-]+`)

func (s *TokenStrategy) Attempt(_ context.Context, link string) (string, error) {
	token := extractToken(link)
	if token == "" {
		return "", nil
	}

	for _, candidate := range tokenVariants(token) {
		for _, decoded := range decodeBase64Lenient(candidate) {
			if direct := findEmbeddedURL(decoded); direct != "" {
				return direct, nil
			}
		}
	}
	return "", nil
}

// tokenVariants returns the token plus copies with known URL-prefix markers
// stripped, since the marker shifts the base64 alignment of the payload.
func tokenVariants(token string) []string {
	variants := []string{token}
	for _, prefix := range tokenURLPrefixes {
		if strings.HasPrefix(token, prefix) {
			variants = append(variants, strings.TrimPrefix(token, prefix))
		}
	}
	return variants
}

// decodeBase64Lenient tries standard and URL-safe alphabets with every
// padding length, returning every decode that yields bytes.
func decodeBase64Lenient(s string) [][]byte {
	trimmed := strings.TrimRight(s, "=")
	var results [][]byte
	for _, pad := range []string{"", "=", "=="} {
		padded := trimmed + pad
		if decoded, err := base64.StdEncoding.DecodeString(padded); err == nil {
			results = append(results, decoded)
		}
		if decoded, err := base64.URLEncoding.DecodeString(padded); err == nil {
			results = append(results, decoded)
		}
	}
	return results
}

// findEmbeddedURL scans decoded token bytes for an external http(s) URL.
func findEmbeddedURL(decoded []byte) string {
	for _, match := range decodedURLPattern.FindAllString(string(decoded), -1) {
		cleaned := strings.TrimRight(match, `.,;)]}`)
		if IsExternalURL(cleaned) {
			return cleaned
		}
	}
	return ""
}
