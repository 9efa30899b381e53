package hikvision

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// digestChallenge holds the fields parsed from a WWW-Authenticate header
type digestChallenge struct {
	Realm  string
	Nonce  string
	Qop    string
	Opaque string
}

// parseDigestChallenge extracts the digest parameters from a
// WWW-Authenticate header value. Returns an error if the header is not a
// digest challenge.
func parseDigestChallenge(header string) (*digestChallenge, error) {
	const prefix = "Digest "
	if !strings.HasPrefix(header, prefix) {
		return nil, fmt.Errorf("not a digest challenge: %q", header)
	}

	ch := &digestChallenge{}
	for _, part := range strings.Split(header[len(prefix):], ",") {
		part = strings.TrimSpace(part)
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		key := part[:eq]
		val := strings.Trim(part[eq+1:], `"`)
		switch key {
		case "realm":
			ch.Realm = val
		case "nonce":
			ch.Nonce = val
		case "qop":
			ch.Qop = val
		case "opaque":
			ch.Opaque = val
		}
	}
	if ch.Realm == "" || ch.Nonce == "" {
		return nil, fmt.Errorf("incomplete digest challenge: %q", header)
	}
	return ch, nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newCnonce() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// fall back to a fixed value, the device only needs uniqueness per nonce
		return "deadbeefcafebabe"
	}
	return hex.EncodeToString(b)
}

// digestAuthorization computes the Authorization header for one request.
// nc is the per-nonce request counter, starting at 1.
func digestAuthorization(ch *digestChallenge, username, password, method, uri string, nc int, cnonce string) string {
	ha1 := md5Hex(username + ":" + ch.Realm + ":" + password)
	ha2 := md5Hex(method + ":" + uri)
	ncValue := fmt.Sprintf("%08x", nc)

	var response string
	if ch.Qop != "" {
		response = md5Hex(strings.Join([]string{ha1, ch.Nonce, ncValue, cnonce, ch.Qop, ha2}, ":"))
	} else {
		response = md5Hex(ha1 + ":" + ch.Nonce + ":" + ha2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		username, ch.Realm, ch.Nonce, uri, response)
	if ch.Qop != "" {
		fmt.Fprintf(&b, `, qop=%s, nc=%s, cnonce="%s"`, ch.Qop, ncValue, cnonce)
	}
	if ch.Opaque != "" {
		fmt.Fprintf(&b, `, opaque="%s"`, ch.Opaque)
	}
	return b.String()
}
