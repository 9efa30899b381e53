package services

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/yusufturaev707/faceid/internal/infrastructure/picture"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// ErrUnparseable marks a webhook body that could not be decoded. The caller
// treats this like "nobody at the camera": log a warning, do nothing else.
var ErrUnparseable = errors.New("unparseable door event")

// DoorEvent is one normalized face-recognition event from a controller
type DoorEvent struct {
	MACAddress string
	IPAddress  string
	DoorNo     int
	Timestamp  time.Time // server-local naive time
	Name       string    // name recognized by the device
	EmployeeNo string    // national ID the device matched
	UserType   string    // subject type declared by the device
	Picture    string    // captured frame as data-URI base64, may be empty
}

// rawControllerEvent mirrors the device's JSON part
type rawControllerEvent struct {
	EventState string `json:"eventState"`
	EventType  string `json:"eventType"`
	DateTime   string `json:"dateTime"`
	IPAddress  string `json:"ipAddress"`
	MACAddress string `json:"macAddress"`
	Inner      struct {
		DoorNo           int    `json:"doorNo"`
		Name             string `json:"name"`
		EmployeeNoString string `json:"employeeNoString"`
		UserType         string `json:"userType"`
	} `json:"AccessControllerEvent"`
}

// ParseDoorEvent extracts a DoorEvent from the device's multipart webhook
// body. Returns (nil, nil) for heartbeat noise (eventState != "active" or a
// different eventType) and (nil, ErrUnparseable) for malformed payloads.
func ParseDoorEvent(r *http.Request) (*DoorEvent, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, ErrUnparseable
	}

	payload := r.FormValue("AccessControllerEvent")
	if payload == "" {
		// some firmware revisions name the part event_log
		payload = r.FormValue("event_log")
	}
	if payload == "" {
		return nil, ErrUnparseable
	}

	var raw rawControllerEvent
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, ErrUnparseable
	}

	// Heartbeats and non-access notifications are silently ignored
	if raw.EventState != "active" || raw.EventType != "AccessControllerEvent" {
		return nil, nil
	}
	if raw.MACAddress == "" {
		return nil, ErrUnparseable
	}

	ev := &DoorEvent{
		MACAddress: raw.MACAddress,
		IPAddress:  raw.IPAddress,
		DoorNo:     raw.Inner.DoorNo,
		Timestamp:  normalizeEventTime(raw.DateTime),
		Name:       raw.Inner.Name,
		EmployeeNo: raw.Inner.EmployeeNoString,
		UserType:   raw.Inner.UserType,
	}

	if file, _, err := r.FormFile("Picture"); err == nil {
		defer file.Close()
		if data, err := io.ReadAll(file); err == nil && len(data) > 0 {
			uri, err := picture.ResizeToDataURI(data)
			if err != nil {
				logger.Warning("door event picture dropped: %v", err)
			} else {
				ev.Picture = uri
			}
		}
	}

	return ev, nil
}

// normalizeEventTime parses a device timestamp with or without a timezone
// offset and converts it to server-local naive time. Unparseable timestamps
// fall back to now.
func normalizeEventTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			local := t
			if layout != "2006-01-02T15:04:05" {
				local = t.Local()
			}
			return time.Date(local.Year(), local.Month(), local.Day(),
				local.Hour(), local.Minute(), local.Second(), 0, time.Local)
		}
	}
	return time.Now().Truncate(time.Second)
}
