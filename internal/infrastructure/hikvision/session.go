package hikvision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Doer is the transport the session talks through. Tests inject fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is the outcome of one device call
type Result struct {
	StatusCode int
	Body       string
}

// OK reports plain HTTP success
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Hardware-error markers the controllers are known to return in otherwise
// well-formed responses
var hardwareErrorMarkers = []string{
	"805306369",
	"Device Error",
	"deviceError",
	"Device hardware error",
}

// IsHardwareError reports whether a response body carries a device
// hardware-error marker. These need backoff, unlike ordinary HTTP errors.
func IsHardwareError(body string) bool {
	for _, marker := range hardwareErrorMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// ErrUnauthorized is returned when the device rejects credentials even after
// a fresh digest handshake
var ErrUnauthorized = fmt.Errorf("device rejected credentials")

// DeviceSession is one authenticated conversation with a door controller.
// Sessions are created per interaction batch and thrown away, never shared
// between goroutines.
type DeviceSession struct {
	host     string // ip or ip:port
	username string
	password string
	client   Doer

	challenge *digestChallenge
	nc        int
}

// NewDeviceSession creates a session for a controller. client may be nil, in
// which case a default HTTP client with the given timeout is used.
func NewDeviceSession(host, username, password string, timeout time.Duration, client Doer) *DeviceSession {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &DeviceSession{
		host:     host,
		username: username,
		password: password,
		client:   client,
	}
}

// Reset drops the cached digest state so the next call performs a fresh
// handshake
func (s *DeviceSession) Reset() {
	s.challenge = nil
	s.nc = 0
}

// Do performs one device call, handling the digest handshake. On a 401 with a
// cached challenge it re-authenticates once with the fresh challenge before
// giving up.
func (s *DeviceSession) Do(ctx context.Context, method, path, contentType string, body []byte) (*Result, error) {
	res, err := s.send(ctx, method, path, contentType, body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusUnauthorized {
		return res, nil
	}

	// Stale or missing auth state: redo the handshake once
	s.Reset()
	res, err = s.send(ctx, method, path, contentType, body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusUnauthorized {
		return res, ErrUnauthorized
	}
	return res, nil
}

// send issues the request, performing the initial challenge round-trip when
// no digest state is cached yet
func (s *DeviceSession) send(ctx context.Context, method, path, contentType string, body []byte) (*Result, error) {
	if s.challenge == nil {
		probe, err := s.roundTrip(ctx, method, path, contentType, body, "")
		if err != nil {
			return nil, err
		}
		if probe.resp.StatusCode != http.StatusUnauthorized {
			return probe.result(), nil
		}
		ch, err := parseDigestChallenge(probe.resp.Header.Get("WWW-Authenticate"))
		if err != nil {
			// device answered 401 without a usable challenge
			return probe.result(), nil
		}
		s.challenge = ch
		s.nc = 0
	}

	s.nc++
	auth := digestAuthorization(s.challenge, s.username, s.password, method, path, s.nc, newCnonce())
	rt, err := s.roundTrip(ctx, method, path, contentType, body, auth)
	if err != nil {
		return nil, err
	}
	return rt.result(), nil
}

type roundTripOut struct {
	resp *http.Response
	body []byte
}

func (r *roundTripOut) result() *Result {
	return &Result{StatusCode: r.resp.StatusCode, Body: string(r.body)}
}

func (s *DeviceSession) roundTrip(ctx context.Context, method, path, contentType string, body []byte, auth string) (*roundTripOut, error) {
	url := "http://" + s.host + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &roundTripOut{resp: resp, body: respBody}, nil
}
