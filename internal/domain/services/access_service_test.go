package services

import (
	"testing"
	"time"

	"github.com/yusufturaev707/faceid/internal/domain/models"
)

// Fakes injected through the engine's narrow interfaces.

type fakeTurnstiles struct {
	binding *TurnstileBinding
}

func (f *fakeTurnstiles) ResolveBinding(mac string) (*TurnstileBinding, error) {
	if f.binding != nil && f.binding.Turnstile.MACAddress == mac {
		return f.binding, nil
	}
	return nil, nil
}

type fakeShifts struct {
	shift *ActiveShift
}

func (f *fakeShifts) ResolveActiveShift(examID uint, t time.Time) (*ActiveShift, error) {
	if f.shift == nil {
		return nil, nil
	}
	if !f.shift.Window.Contains(t) {
		return nil, nil
	}
	return f.shift, nil
}

type fakeStudents struct {
	inShift     map[string]*models.Student
	inExam      map[string]*models.Student
	blacklisted map[string]bool
	entered     []uint
}

func (f *fakeStudents) FindForEvent(examID uint, pinfl string, date time.Time, shift int) (*models.Student, error) {
	return f.inShift[pinfl], nil
}

func (f *fakeStudents) FindAny(examID uint, pinfl string) (*models.Student, error) {
	return f.inExam[pinfl], nil
}

func (f *fakeStudents) IsBlacklisted(pinfl string) (bool, error) {
	return f.blacklisted[pinfl], nil
}

func (f *fakeStudents) MarkEntered(studentID uint) error {
	f.entered = append(f.entered, studentID)
	return nil
}

type fakeSupervisors struct {
	byPinfl     map[string]*models.Supervisor
	assignments map[uint]*models.EventSupervisor
}

func (f *fakeSupervisors) FindActiveByPinfl(pinfl string) (*models.Supervisor, error) {
	return f.byPinfl[pinfl], nil
}

func (f *fakeSupervisors) AssignmentFor(supervisorID, examID uint, date time.Time, shift int) (*models.EventSupervisor, error) {
	return f.assignments[supervisorID], nil
}

type fakeBarrier struct {
	opened int
	fail   bool
}

func (f *fakeBarrier) Open(t *models.Turnstile, doorNo int) (bool, error) {
	if f.fail {
		return false, nil
	}
	f.opened++
	return true, nil
}

type fakeLogs struct {
	studentLogs    []*models.StudentLog
	supervisorLogs []*models.SupervisorLog
}

func (f *fakeLogs) WriteStudentLog(entry *models.StudentLog) {
	f.studentLogs = append(f.studentLogs, entry)
}
func (f *fakeLogs) WriteSupervisorLog(entry *models.SupervisorLog) {
	f.supervisorLogs = append(f.supervisorLogs, entry)
}

type fakeMonitor struct {
	published []uint
	payloads  []map[string]interface{}
}

func (f *fakeMonitor) Publish(turnstileID uint, payload map[string]interface{}) {
	f.published = append(f.published, turnstileID)
	f.payloads = append(f.payloads, payload)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// testEngine builds an engine with one bound turnstile and an open shift
// window from 06:00:00 to 10:00:00.
func testEngine() (*AccessService, *fakeStudents, *fakeSupervisors, *fakeBarrier, *fakeLogs, *fakeMonitor) {
	zone := &models.Zone{Name: "A blok", RegionID: 3}
	zone.ID = 7

	turnstile := models.Turnstile{
		ZoneID:     7,
		Name:       "Kirish 1",
		MACAddress: "aa:bb:cc:dd:ee:01",
		IPAddress:  "10.0.0.10",
		Zone:       zone,
	}
	turnstile.ID = 42

	exam := models.Exam{State: models.ExamStateReady}
	exam.ID = 5

	binding := &TurnstileBinding{
		Turnstile: turnstile,
		Exam:      exam,
		Binding:   models.ExamTurnstile{ExamID: 5, TurnstileID: 42},
	}

	shift := &ActiveShift{
		Window: models.ExamShift{ExamID: 5, AccessTime: "06:00:00", ExpireTime: "10:00:00"},
		Number: 1,
	}

	students := &fakeStudents{
		inShift:     map[string]*models.Student{},
		inExam:      map[string]*models.Student{},
		blacklisted: map[string]bool{},
	}
	supervisors := &fakeSupervisors{
		byPinfl:     map[string]*models.Supervisor{},
		assignments: map[uint]*models.EventSupervisor{},
	}
	barrier := &fakeBarrier{}
	logs := &fakeLogs{}
	monitor := &fakeMonitor{}

	engine := &AccessService{
		Turnstiles:  &fakeTurnstiles{binding: binding},
		Shifts:      &fakeShifts{shift: shift},
		Students:    students,
		Supervisors: supervisors,
		Barrier:     barrier,
		Logs:        logs,
		Monitor:     monitor,
		Clock:       fixedClock{t: time.Date(2026, 5, 20, 8, 0, 0, 0, time.Local)},
	}
	return engine, students, supervisors, barrier, logs, monitor
}

func studentEvent(pinfl string, hour, min, sec int) *DoorEvent {
	return &DoorEvent{
		MACAddress: "aa:bb:cc:dd:ee:01",
		IPAddress:  "10.0.0.10",
		DoorNo:     1,
		Timestamp:  time.Date(2026, 5, 20, hour, min, sec, 0, time.Local),
		Name:       "Aliyev Vali",
		EmployeeNo: pinfl,
		UserType:   "normal",
	}
}

func rosterStudent(id uint, pinfl string, zoneID uint) *models.Student {
	st := &models.Student{Pinfl: pinfl, ZoneID: zoneID}
	st.ID = id
	return st
}

func TestHandleEventGrantsEligibleStudent(t *testing.T) {
	engine, students, _, barrier, logs, monitor := testEngine()
	students.inShift["12345678901234"] = rosterStudent(11, "12345678901234", 7)

	result := engine.HandleEvent(studentEvent("12345678901234", 8, 30, 0))

	if !result.Granted() {
		t.Fatalf("expected grant, got %s (%s)", result.Decision, result.Message)
	}
	if result.Message != MsgGranted {
		t.Errorf("message = %q, want %q", result.Message, MsgGranted)
	}
	if barrier.opened != 1 {
		t.Errorf("barrier opened %d times, want 1", barrier.opened)
	}
	if len(logs.studentLogs) != 1 || logs.studentLogs[0].Status != models.LogStatusApproved {
		t.Fatalf("expected one approved log, got %+v", logs.studentLogs)
	}
	if len(students.entered) != 1 || students.entered[0] != 11 {
		t.Errorf("entry direction must mark the student entered, got %v", students.entered)
	}
	if len(monitor.published) != 1 || monitor.published[0] != 42 {
		t.Errorf("broadcast channel = %v, want [42]", monitor.published)
	}
}

func TestHandleEventLogsEveryAttempt(t *testing.T) {
	engine, students, _, barrier, logs, _ := testEngine()
	students.inShift["12345678901234"] = rosterStudent(11, "12345678901234", 7)

	engine.HandleEvent(studentEvent("12345678901234", 8, 0, 0))
	engine.HandleEvent(studentEvent("12345678901234", 8, 1, 0))

	// A second pass of the same person is a fresh decision and a fresh row
	if barrier.opened != 2 {
		t.Errorf("barrier opened %d times, want 2", barrier.opened)
	}
	if len(logs.studentLogs) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(logs.studentLogs))
	}
}

func TestHandleEventExitDoesNotMarkEntered(t *testing.T) {
	engine, students, _, _, _, _ := testEngine()
	students.inShift["12345678901234"] = rosterStudent(11, "12345678901234", 7)

	ev := studentEvent("12345678901234", 8, 30, 0)
	ev.DoorNo = 2

	result := engine.HandleEvent(ev)
	if !result.Granted() {
		t.Fatalf("expected grant on exit, got %s", result.Decision)
	}
	if len(students.entered) != 0 {
		t.Errorf("exit direction must not mark entered, got %v", students.entered)
	}
}

func TestHandleEventBlacklistBeatsExclusion(t *testing.T) {
	engine, students, _, barrier, logs, _ := testEngine()
	st := rosterStudent(11, "12345678901234", 7)
	st.IsCheating = true
	students.inShift["12345678901234"] = st
	students.blacklisted["12345678901234"] = true

	result := engine.HandleEvent(studentEvent("12345678901234", 8, 30, 0))

	if result.Decision != DecisionDeniedPolicy {
		t.Fatalf("decision = %s, want %s", result.Decision, DecisionDeniedPolicy)
	}
	// Blacklist wins over the exclusion flag, so the generic refusal shows
	if result.Message != MsgNotPermitted {
		t.Errorf("message = %q, want %q", result.Message, MsgNotPermitted)
	}
	if barrier.opened != 0 {
		t.Errorf("barrier must stay closed, opened %d times", barrier.opened)
	}
	if len(logs.studentLogs) != 1 || logs.studentLogs[0].Status != models.LogStatusDenied {
		t.Fatalf("expected one denied log, got %+v", logs.studentLogs)
	}
}

func TestHandleEventExcludedStudent(t *testing.T) {
	engine, students, _, _, _, _ := testEngine()
	st := rosterStudent(11, "12345678901234", 7)
	st.IsCheating = true
	students.inShift["12345678901234"] = st

	result := engine.HandleEvent(studentEvent("12345678901234", 8, 30, 0))

	if result.Decision != DecisionDeniedPolicy || result.Message != MsgExcluded {
		t.Fatalf("got %s %q, want %s %q", result.Decision, result.Message, DecisionDeniedPolicy, MsgExcluded)
	}
}

func TestHandleEventWrongBuilding(t *testing.T) {
	engine, students, _, barrier, _, _ := testEngine()
	students.inShift["12345678901234"] = rosterStudent(11, "12345678901234", 99)

	result := engine.HandleEvent(studentEvent("12345678901234", 8, 30, 0))

	if result.Decision != DecisionDeniedPolicy || result.Message != MsgWrongBuilding {
		t.Fatalf("got %s %q, want %s %q", result.Decision, result.Message, DecisionDeniedPolicy, MsgWrongBuilding)
	}
	if barrier.opened != 0 {
		t.Errorf("barrier must stay closed for wrong building")
	}
}

func TestHandleEventShiftBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		h, m, s int
		granted bool
	}{
		{"one second before opening", 5, 59, 59, false},
		{"exactly at opening", 6, 0, 0, true},
		{"exactly at closing", 10, 0, 0, true},
		{"one second after closing", 10, 0, 1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, students, _, _, logs, _ := testEngine()
			students.inShift["12345678901234"] = rosterStudent(11, "12345678901234", 7)

			result := engine.HandleEvent(studentEvent("12345678901234", tc.h, tc.m, tc.s))

			if result.Granted() != tc.granted {
				t.Fatalf("granted = %v, want %v (%s)", result.Granted(), tc.granted, result.Message)
			}
			if !tc.granted {
				if result.Decision != DecisionDeniedNoWindow {
					t.Errorf("decision = %s, want %s", result.Decision, DecisionDeniedNoWindow)
				}
				// Outside every window no person is resolved, nothing to log
				if len(logs.studentLogs) != 0 {
					t.Errorf("no-window events must not write audit rows, got %d", len(logs.studentLogs))
				}
			}
		})
	}
}

func TestHandleEventUnknownTurnstile(t *testing.T) {
	engine, _, _, _, logs, monitor := testEngine()

	ev := studentEvent("12345678901234", 8, 0, 0)
	ev.MACAddress = "ff:ff:ff:ff:ff:ff"

	result := engine.HandleEvent(ev)

	if result.Decision != DecisionDeniedNotFound || result.Message != MsgTurnstileUnknown {
		t.Fatalf("got %s %q", result.Decision, result.Message)
	}
	if len(logs.studentLogs) != 0 || len(logs.supervisorLogs) != 0 {
		t.Errorf("unknown turnstile must not write audit rows")
	}
	// The monitor still learns about it on the catch-all channel
	if len(monitor.published) != 1 || monitor.published[0] != 0 {
		t.Errorf("broadcast channel = %v, want [0]", monitor.published)
	}
}

func TestHandleEventStudentInOtherShift(t *testing.T) {
	engine, students, _, _, logs, _ := testEngine()
	students.inExam["12345678901234"] = rosterStudent(11, "12345678901234", 7)

	result := engine.HandleEvent(studentEvent("12345678901234", 8, 0, 0))

	if result.Decision != DecisionDeniedNotFound || result.Message != MsgNotInShift {
		t.Fatalf("got %s %q, want %s %q", result.Decision, result.Message, DecisionDeniedNotFound, MsgNotInShift)
	}
	if len(logs.studentLogs) != 1 || !logs.studentLogs[0].RequiresVerification {
		t.Fatalf("expected one manual-check log, got %+v", logs.studentLogs)
	}
}

func TestHandleEventUnknownPersonMasksPinfl(t *testing.T) {
	engine, _, _, _, logs, monitor := testEngine()

	result := engine.HandleEvent(studentEvent("12345678901234", 8, 0, 0))

	if result.Decision != DecisionDeniedNotFound || result.Message != MsgNotInTest {
		t.Fatalf("got %s %q", result.Decision, result.Message)
	}
	if len(logs.studentLogs) != 1 || logs.studentLogs[0].StudentID != nil {
		t.Fatalf("expected one unresolved log, got %+v", logs.studentLogs)
	}
	if got := monitor.payloads[0]["employee_no"]; got != "**********1234" {
		t.Errorf("broadcast employee_no = %q, want masked", got)
	}
}

func TestHandleEventBarrierFailure(t *testing.T) {
	engine, students, _, barrier, logs, _ := testEngine()
	students.inShift["12345678901234"] = rosterStudent(11, "12345678901234", 7)
	barrier.fail = true

	result := engine.HandleEvent(studentEvent("12345678901234", 8, 0, 0))

	if result.Decision != DecisionDeniedHardware || result.Message != MsgDoorNotOpened {
		t.Fatalf("got %s %q", result.Decision, result.Message)
	}
	if len(logs.studentLogs) != 1 || logs.studentLogs[0].Status != models.LogStatusNotOpen {
		t.Fatalf("expected one not_open log, got %+v", logs.studentLogs)
	}
	if len(students.entered) != 0 {
		t.Errorf("failed open must not mark entered")
	}
}

func newSupervisor(id uint, pinfl string, role models.SupervisorRole, regionID uint) *models.Supervisor {
	sup := &models.Supervisor{Pinfl: pinfl, Role: role, RegionID: regionID}
	sup.ID = id
	return sup
}

func TestHandleEventStaffBypassesZoneRules(t *testing.T) {
	engine, _, supervisors, barrier, logs, _ := testEngine()
	supervisors.byPinfl["98765432109876"] = newSupervisor(3, "98765432109876", models.RoleStaff, 99)

	ev := studentEvent("98765432109876", 8, 0, 0)
	ev.UserType = "staff"

	result := engine.HandleEvent(ev)

	if !result.Granted() {
		t.Fatalf("staff must pass regardless of region, got %s %q", result.Decision, result.Message)
	}
	if barrier.opened != 1 {
		t.Errorf("barrier opened %d times, want 1", barrier.opened)
	}
	if len(logs.supervisorLogs) != 1 || logs.supervisorLogs[0].Status != models.LogStatusApproved {
		t.Fatalf("expected one approved supervisor log, got %+v", logs.supervisorLogs)
	}
}

func TestHandleEventProctorNeedsAssignmentWindow(t *testing.T) {
	engine, _, supervisors, _, _, _ := testEngine()
	sup := newSupervisor(3, "98765432109876", models.RoleSupervisor, 3)
	supervisors.byPinfl["98765432109876"] = sup

	ev := studentEvent("98765432109876", 8, 0, 0)
	ev.UserType = "supervisor"

	// No assignment at all
	result := engine.HandleEvent(ev)
	if result.Decision != DecisionDeniedPolicy || result.Message != MsgNotPermittedExam {
		t.Fatalf("got %s %q, want %s %q", result.Decision, result.Message, DecisionDeniedPolicy, MsgNotPermittedExam)
	}

	// Assignment present and the clock inside its window
	supervisors.assignments[3] = &models.EventSupervisor{
		SupervisorID:   3,
		ExamID:         5,
		AccessDatetime: time.Date(2026, 5, 20, 7, 0, 0, 0, time.Local),
		ExpireDatetime: time.Date(2026, 5, 20, 11, 0, 0, 0, time.Local),
	}
	result = engine.HandleEvent(ev)
	if !result.Granted() {
		t.Fatalf("assigned proctor must pass, got %s %q", result.Decision, result.Message)
	}
}

func TestHandleEventProctorWrongRegion(t *testing.T) {
	engine, _, supervisors, _, _, _ := testEngine()
	supervisors.byPinfl["98765432109876"] = newSupervisor(3, "98765432109876", models.RoleSupervisor, 55)

	ev := studentEvent("98765432109876", 8, 0, 0)
	ev.UserType = "supervisor"

	result := engine.HandleEvent(ev)
	if result.Decision != DecisionDeniedPolicy || result.Message != MsgWrongZone {
		t.Fatalf("got %s %q, want %s %q", result.Decision, result.Message, DecisionDeniedPolicy, MsgWrongZone)
	}
}

func TestHandleEventProctorReportedAsNormalUser(t *testing.T) {
	// Devices report everyone they do not know as "normal", so the student
	// path falls back to the staff directory.
	engine, _, supervisors, _, logs, _ := testEngine()
	supervisors.byPinfl["98765432109876"] = newSupervisor(3, "98765432109876", models.RoleStaff, 3)

	result := engine.HandleEvent(studentEvent("98765432109876", 8, 0, 0))

	if !result.Granted() {
		t.Fatalf("staff via fallback must pass, got %s %q", result.Decision, result.Message)
	}
	if len(logs.studentLogs) != 0 {
		t.Errorf("fallback path must log as supervisor, not student")
	}
	if len(logs.supervisorLogs) != 1 {
		t.Errorf("expected one supervisor log, got %d", len(logs.supervisorLogs))
	}
}
