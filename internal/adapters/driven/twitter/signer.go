package twitter

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Signer produces OAuth 1.0a HMAC-SHA1 Authorization headers (RFC 5849).
type Signer struct {
	consumerKey    string
	consumerSecret string

	// nonce and clock are swappable for deterministic tests.
	nonce func() (string, error)
	clock func() time.Time
}

// NewSigner creates a signer for the given consumer credentials.
func NewSigner(consumerKey, consumerSecret string) *Signer {
	return &Signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		nonce:          generateNonce,
		clock:          time.Now,
	}
}

func generateNonce() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Sign sets the Authorization header on req. form must hold the request's
// form-encoded body parameters, if any; the request URL's query parameters
// are picked up automatically. extra holds protocol parameters beyond the
// standard set (oauth_callback, oauth_verifier). token and tokenSecret may
// be empty for the request-token leg.
func (s *Signer) Sign(req *http.Request, form url.Values, token, tokenSecret string, extra map[string]string) error {
	nonce, err := s.nonce()
	if err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(s.clock().Unix(), 10),
		"oauth_version":          "1.0",
	}
	if token != "" {
		oauthParams["oauth_token"] = token
	}
	for k, v := range extra {
		oauthParams[k] = v
	}

	base := signatureBase(req.Method, req.URL, req.URL.Query(), form, oauthParams)
	oauthParams["oauth_signature"] = s.signature(base, tokenSecret)

	req.Header.Set("Authorization", authorizationHeader(oauthParams))
	return nil
}

// signature computes base64(HMAC-SHA1(base)) with the RFC 5849 signing key.
func (s *Signer) signature(base, tokenSecret string) string {
	key := percentEncode(s.consumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signatureBase builds the RFC 5849 signature base string: the uppercase
// method, the base URI without query, and the normalized parameters, each
// percent encoded and joined by ampersands.
func signatureBase(method string, u *url.URL, query, form url.Values, oauthParams map[string]string) string {
	baseURL := u.Scheme + "://" + u.Host + u.EscapedPath()

	type pair struct{ k, v string }
	var pairs []pair
	for k, vs := range query {
		for _, v := range vs {
			pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
		}
	}
	for k, vs := range form {
		for _, v := range vs {
			pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
		}
	}
	for k, v := range oauthParams {
		pairs = append(pairs, pair{percentEncode(k), percentEncode(v)})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	params := make([]string, len(pairs))
	for i, p := range pairs {
		params[i] = p.k + "=" + p.v
	}

	return strings.ToUpper(method) + "&" +
		percentEncode(baseURL) + "&" +
		percentEncode(strings.Join(params, "&"))
}

// authorizationHeader renders the OAuth header, keys sorted for stable output.
func authorizationHeader(oauthParams map[string]string) string {
	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = percentEncode(k) + `="` + percentEncode(oauthParams[k]) + `"`
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// percentEncode implements RFC 3986 encoding as RFC 5849 requires: only
// unreserved characters pass through, everything else becomes uppercase
// %XX, space included.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
