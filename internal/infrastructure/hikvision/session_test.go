package hikvision

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// fakeDevice scripts a controller's HTTP behavior: a digest challenge on
// unauthenticated requests, then the scripted responses in order.
type fakeDevice struct {
	challenge string
	responses []fakeResponse
	requests  []*http.Request
	rejectAll bool
}

type fakeResponse struct {
	status int
	body   string
}

func (d *fakeDevice) Do(req *http.Request) (*http.Response, error) {
	d.requests = append(d.requests, req)

	if req.Header.Get("Authorization") == "" || d.rejectAll {
		resp := &http.Response{
			StatusCode: http.StatusUnauthorized,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("")),
		}
		resp.Header.Set("WWW-Authenticate", d.challenge)
		return resp, nil
	}

	next := fakeResponse{status: 200, body: ""}
	if len(d.responses) > 0 {
		next = d.responses[0]
		d.responses = d.responses[1:]
	}
	return &http.Response{
		StatusCode: next.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(next.body)),
	}, nil
}

func newFakeDevice(responses ...fakeResponse) *fakeDevice {
	return &fakeDevice{
		challenge: `Digest realm="device", qop="auth", nonce="n1"`,
		responses: responses,
	}
}

func TestSessionPerformsDigestHandshake(t *testing.T) {
	device := newFakeDevice(fakeResponse{200, "<ResponseStatus><statusCode>1</statusCode></ResponseStatus>"})
	session := NewDeviceSession("10.0.0.10", "admin", "secret", time.Second, device)

	res, err := session.Do(context.Background(), "PUT", "/ISAPI/AccessControl/RemoteControl/door/1",
		"application/xml", []byte("<RemoteControlDoor><cmd>open</cmd></RemoteControlDoor>"))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if !res.OK() {
		t.Fatalf("status = %d", res.StatusCode)
	}

	// Probe without auth, then the authenticated request
	if len(device.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(device.requests))
	}
	if device.requests[0].Header.Get("Authorization") != "" {
		t.Errorf("probe must carry no Authorization header")
	}
	auth := device.requests[1].Header.Get("Authorization")
	if !strings.Contains(auth, `username="admin"`) || !strings.Contains(auth, "nc=00000001") {
		t.Errorf("bad Authorization header: %s", auth)
	}
}

func TestSessionReusesChallengeAndCountsNonce(t *testing.T) {
	device := newFakeDevice(fakeResponse{200, ""}, fakeResponse{200, ""})
	session := NewDeviceSession("10.0.0.10", "admin", "secret", time.Second, device)

	if _, err := session.Do(context.Background(), "GET", "/SDK/activateStatus", "", nil); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := session.Do(context.Background(), "GET", "/SDK/activateStatus", "", nil); err != nil {
		t.Fatalf("second call: %v", err)
	}

	// 1 probe + 2 authenticated requests, no second handshake
	if len(device.requests) != 3 {
		t.Fatalf("requests = %d, want 3", len(device.requests))
	}
	auth := device.requests[2].Header.Get("Authorization")
	if !strings.Contains(auth, "nc=00000002") {
		t.Errorf("second request must increment nc: %s", auth)
	}
}

func TestSessionReturnsErrUnauthorizedOnBadCredentials(t *testing.T) {
	device := newFakeDevice()
	device.rejectAll = true
	session := NewDeviceSession("10.0.0.10", "admin", "wrong", time.Second, device)

	_, err := session.Do(context.Background(), "GET", "/SDK/activateStatus", "", nil)
	if err != ErrUnauthorized {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
