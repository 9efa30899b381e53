package hikvision

import (
	"context"
	"fmt"
	"strings"
)

const openDoorBody = `<RemoteControlDoor version="2.0" xmlns="http://www.isapi.org/ver20/XMLSchema"><cmd>open</cmd></RemoteControlDoor>`

// OpenDoor commands the controller to open the given door. Success requires
// HTTP 200 AND the <statusCode>1</statusCode> marker in the body: the
// controllers return 200 with a failure code when the relay does not fire.
// No retry here; the live path reports a failed open immediately.
func (s *DeviceSession) OpenDoor(ctx context.Context, doorNo int) (bool, error) {
	path := fmt.Sprintf("/ISAPI/AccessControl/RemoteControl/door/%d", doorNo)
	res, err := s.Do(ctx, "PUT", path, "application/xml", []byte(openDoorBody))
	if err != nil {
		return false, err
	}
	if !res.OK() {
		return false, nil
	}
	return strings.Contains(res.Body, "<statusCode>1</statusCode>"), nil
}

// CheckActivated verifies the controller is reachable and activated.
// Unreachable or unactivated devices are skipped by bulk pushes, reported
// distinctly from push failures.
func (s *DeviceSession) CheckActivated(ctx context.Context) (bool, error) {
	res, err := s.Do(ctx, "GET", "/SDK/activateStatus", "", nil)
	if err != nil {
		return false, err
	}
	if !res.OK() {
		return false, nil
	}
	return strings.Contains(res.Body, "<Activated>true</Activated>"), nil
}
