package hikvision

import (
	"context"
	"encoding/json"
	"strings"
)

// PersonRecord is one identity record pushed to a controller
type PersonRecord struct {
	EmployeeNo string // national ID, used as the device-side key
	Name       string
	Gender     string // "male"/"female", optional
	BeginTime  string // validity window, "2006-01-02T15:04:05"
	EndTime    string
	DoorRight  string // door plan, "1" for the single-door fleet
}

type userInfoValid struct {
	Enable    bool   `json:"enable"`
	BeginTime string `json:"beginTime"`
	EndTime   string `json:"endTime"`
	TimeType  string `json:"timeType"`
}

type userInfoRightPlan struct {
	DoorNo         int    `json:"doorNo"`
	PlanTemplateNo string `json:"planTemplateNo"`
}

type userInfo struct {
	EmployeeNo string              `json:"employeeNo"`
	Name       string              `json:"name"`
	UserType   string              `json:"userType"`
	Gender     string              `json:"gender,omitempty"`
	Valid      userInfoValid       `json:"Valid"`
	DoorRight  string              `json:"doorRight"`
	RightPlan  []userInfoRightPlan `json:"RightPlan"`
}

// AddPerson upserts an identity record on the controller. Conflicting adds
// come back as non-success bodies and are treated as failures by the caller,
// never silently ignored.
func (s *DeviceSession) AddPerson(ctx context.Context, p PersonRecord) (*Result, error) {
	doorRight := p.DoorRight
	if doorRight == "" {
		doorRight = "1"
	}
	payload := map[string]userInfo{
		"UserInfo": {
			EmployeeNo: p.EmployeeNo,
			Name:       p.Name,
			UserType:   "normal",
			Gender:     p.Gender,
			Valid: userInfoValid{
				Enable:    true,
				BeginTime: p.BeginTime,
				EndTime:   p.EndTime,
				TimeType:  "local",
			},
			DoorRight: doorRight,
			RightPlan: []userInfoRightPlan{{DoorNo: 1, PlanTemplateNo: "1"}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return s.Do(ctx, "POST", "/ISAPI/AccessControl/UserInfo/Record?format=json", "application/json", body)
}

// PersonCount returns how many identity records the controller holds
func (s *DeviceSession) PersonCount(ctx context.Context) (int, error) {
	res, err := s.Do(ctx, "GET", "/ISAPI/AccessControl/UserInfo/Count?format=json", "", nil)
	if err != nil {
		return 0, err
	}
	var parsed struct {
		UserInfoCount struct {
			UserNumber int `json:"userNumber"`
		} `json:"UserInfoCount"`
	}
	if err := json.Unmarshal([]byte(res.Body), &parsed); err != nil {
		return 0, err
	}
	return parsed.UserInfoCount.UserNumber, nil
}

// DeleteAllPersons wipes the controller's identity roster ahead of a fresh
// push
func (s *DeviceSession) DeleteAllPersons(ctx context.Context) (bool, error) {
	body := []byte(`{"UserInfoDetail":{"mode":"all"}}`)
	res, err := s.Do(ctx, "PUT", "/ISAPI/AccessControl/UserInfoDetail/Delete?format=json", "application/json", body)
	if err != nil {
		return false, err
	}
	return res.OK() && !strings.Contains(res.Body, "errorCode"), nil
}

// Succeeded reports whether a UserInfo/FDLib call body indicates success.
// The controllers answer 200 with statusCode 1 / "OK" on success.
func Succeeded(res *Result) bool {
	if res == nil || !res.OK() {
		return false
	}
	var parsed struct {
		StatusCode    int    `json:"statusCode"`
		StatusString  string `json:"statusString"`
		SubStatusCode string `json:"subStatusCode"`
	}
	if err := json.Unmarshal([]byte(res.Body), &parsed); err != nil {
		// XML or empty body, fall back to marker scan
		return strings.Contains(res.Body, "<statusCode>1</statusCode>") || res.Body == ""
	}
	return parsed.StatusCode == 1 || parsed.SubStatusCode == "ok" || parsed.StatusString == "OK"
}
