package hikvision

import (
	"strings"
	"testing"
)

func TestParseDigestChallenge(t *testing.T) {
	header := `Digest realm="DS-K1T671", qop="auth", nonce="4e6a5a6b", opaque="799d5"`

	ch, err := parseDigestChallenge(header)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ch.Realm != "DS-K1T671" {
		t.Errorf("realm = %q", ch.Realm)
	}
	if ch.Nonce != "4e6a5a6b" {
		t.Errorf("nonce = %q", ch.Nonce)
	}
	if ch.Qop != "auth" {
		t.Errorf("qop = %q", ch.Qop)
	}
	if ch.Opaque != "799d5" {
		t.Errorf("opaque = %q", ch.Opaque)
	}
}

func TestParseDigestChallengeRejectsBasic(t *testing.T) {
	if _, err := parseDigestChallenge(`Basic realm="device"`); err == nil {
		t.Errorf("basic challenge must be rejected")
	}
	if _, err := parseDigestChallenge(`Digest qop="auth"`); err == nil {
		t.Errorf("challenge without realm and nonce must be rejected")
	}
}

func TestDigestAuthorizationWithQop(t *testing.T) {
	ch := &digestChallenge{Realm: "device", Nonce: "abc123", Qop: "auth"}

	header := digestAuthorization(ch, "admin", "secret", "PUT",
		"/ISAPI/AccessControl/RemoteControl/door/1", 1, "0a0b0c0d")

	for _, want := range []string{
		`username="admin"`,
		`realm="device"`,
		`nonce="abc123"`,
		`uri="/ISAPI/AccessControl/RemoteControl/door/1"`,
		`qop=auth`,
		`nc=00000001`,
		`cnonce="0a0b0c0d"`,
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %s:\n%s", want, header)
		}
	}

	// RFC 2617: response = MD5(HA1:nonce:nc:cnonce:qop:HA2)
	ha1 := md5Hex("admin:device:secret")
	ha2 := md5Hex("PUT:/ISAPI/AccessControl/RemoteControl/door/1")
	want := md5Hex(ha1 + ":abc123:00000001:0a0b0c0d:auth:" + ha2)
	if !strings.Contains(header, `response="`+want+`"`) {
		t.Errorf("wrong digest response:\n%s", header)
	}
}

func TestDigestAuthorizationWithoutQop(t *testing.T) {
	ch := &digestChallenge{Realm: "device", Nonce: "abc123"}

	header := digestAuthorization(ch, "admin", "secret", "GET", "/SDK/activateStatus", 1, "")

	ha1 := md5Hex("admin:device:secret")
	ha2 := md5Hex("GET:/SDK/activateStatus")
	want := md5Hex(ha1 + ":abc123:" + ha2)
	if !strings.Contains(header, `response="`+want+`"`) {
		t.Errorf("wrong legacy digest response:\n%s", header)
	}
	if strings.Contains(header, "qop=") {
		t.Errorf("qop must be omitted when the challenge has none:\n%s", header)
	}
}

func TestSucceeded(t *testing.T) {
	cases := []struct {
		name string
		res  *Result
		want bool
	}{
		{"nil result", nil, false},
		{"json success", &Result{StatusCode: 200, Body: `{"statusCode":1,"statusString":"OK","subStatusCode":"ok"}`}, true},
		{"json refusal", &Result{StatusCode: 200, Body: `{"statusCode":4,"statusString":"Invalid Operation","subStatusCode":"employeeNoAlreadyExist"}`}, false},
		{"xml success", &Result{StatusCode: 200, Body: "<ResponseStatus><statusCode>1</statusCode></ResponseStatus>"}, true},
		{"empty body", &Result{StatusCode: 200, Body: ""}, true},
		{"http error", &Result{StatusCode: 500, Body: `{"statusCode":1}`}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Succeeded(tc.res); got != tc.want {
				t.Errorf("Succeeded = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsHardwareError(t *testing.T) {
	if !IsHardwareError(`{"statusCode":4,"subStatusCode":"deviceError","errorCode":805306369}`) {
		t.Errorf("deviceError body must count as hardware error")
	}
	if IsHardwareError(`{"statusCode":4,"subStatusCode":"employeeNoAlreadyExist"}`) {
		t.Errorf("plain refusal is not a hardware error")
	}
}
