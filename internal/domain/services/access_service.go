package services

import (
	"time"

	"github.com/yusufturaev707/faceid/internal/domain/models"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// Decision is the terminal outcome of one door event
type Decision string

const (
	DecisionGranted        Decision = "granted"
	DecisionDeniedPolicy   Decision = "denied_policy"
	DecisionDeniedNotFound Decision = "denied_not_found"
	DecisionDeniedNoWindow Decision = "denied_no_active_window"
	DecisionDeniedHardware Decision = "denied_hardware_failure"
)

// Monitor messages shown on the venue screens
const (
	MsgTurnstileUnknown = "Bu turniket topilmadi!"
	MsgNoActiveWindow   = "Hozir kirish vaqti emas!"
	MsgNotInShift       = "Joriy smenada topilmadi!"
	MsgNotInTest        = "Bu testda topilmadi!"
	MsgExcluded         = "Chetlashtirilgan!"
	MsgWrongZone        = "Boshqa hudud"
	MsgWrongBuilding    = "Bu binoga kirishga ruxsat yo'q!"
	MsgNotPermitted     = "Ruxsat yo'q."
	MsgNotPermittedExam = "Sizga bu testda kirishga ruxsat yo'q!"
	MsgDoorNotOpened    = "Eshik ochilmadi"
	MsgGranted          = "Ruxsat"
	MsgPersonNotFound   = "Siz topilmadingiz!"
)

// TurnstileBinding is a resolved (turnstile, exam, binding) triple for an
// incoming event
type TurnstileBinding struct {
	Turnstile models.Turnstile
	Exam      models.Exam
	Binding   models.ExamTurnstile
}

// ActiveShift is the shift window that contains the event time
type ActiveShift struct {
	Window models.ExamShift
	Number int
}

// The engine depends only on these narrow interfaces so tests inject fakes.

type TurnstileResolver interface {
	// ResolveBinding returns nil when no active binding matches the MAC
	ResolveBinding(mac string) (*TurnstileBinding, error)
}

type ShiftResolver interface {
	// ResolveActiveShift returns nil when no window contains t
	ResolveActiveShift(examID uint, t time.Time) (*ActiveShift, error)
}

type StudentDirectory interface {
	FindForEvent(examID uint, pinfl string, date time.Time, shift int) (*models.Student, error)
	FindAny(examID uint, pinfl string) (*models.Student, error)
	IsBlacklisted(pinfl string) (bool, error)
	MarkEntered(studentID uint) error
}

type SupervisorDirectory interface {
	FindActiveByPinfl(pinfl string) (*models.Supervisor, error)
	AssignmentFor(supervisorID, examID uint, date time.Time, shift int) (*models.EventSupervisor, error)
}

type BarrierOpener interface {
	Open(t *models.Turnstile, doorNo int) (bool, error)
}

type LogWriter interface {
	WriteStudentLog(entry *models.StudentLog)
	WriteSupervisorLog(entry *models.SupervisorLog)
}

type Broadcaster interface {
	Publish(turnstileID uint, payload map[string]interface{})
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// AccessResult is what the webhook handler reports back to the device
type AccessResult struct {
	Decision    Decision
	Message     string
	TurnstileID uint
}

// Granted reports whether the barrier was opened
func (r *AccessResult) Granted() bool {
	return r.Decision == DecisionGranted
}

// InterfaceAccessService defines the access decision engine interface
type InterfaceAccessService interface {
	HandleEvent(ev *DoorEvent) *AccessResult
}

// AccessService is the access decision engine: resolve turnstile, resolve
// shift, resolve person, evaluate eligibility, open the barrier, write the
// audit row, broadcast. One synchronous pass per door event.
type AccessService struct {
	Turnstiles  TurnstileResolver
	Shifts      ShiftResolver
	Students    StudentDirectory
	Supervisors SupervisorDirectory
	Barrier     BarrierOpener
	Logs        LogWriter
	Monitor     Broadcaster
	Clock       Clock
}

// NewAccessService wires the engine from its collaborators
func NewAccessService(turnstiles TurnstileResolver, shifts ShiftResolver,
	students StudentDirectory, supervisors SupervisorDirectory,
	barrier BarrierOpener, logs LogWriter, monitor Broadcaster) InterfaceAccessService {
	return &AccessService{
		Turnstiles:  turnstiles,
		Shifts:      shifts,
		Students:    students,
		Supervisors: supervisors,
		Barrier:     barrier,
		Logs:        logs,
		Monitor:     monitor,
		Clock:       realClock{},
	}
}

// HandleEvent runs the decision pipeline for one parsed event
func (s *AccessService) HandleEvent(ev *DoorEvent) *AccessResult {
	binding, err := s.Turnstiles.ResolveBinding(ev.MACAddress)
	if err != nil {
		logger.Error("turnstile resolution failed for %s: %v", ev.MACAddress, err)
	}
	if binding == nil {
		// No channel to target: broadcast to channel 0 only, no person log
		result := &AccessResult{Decision: DecisionDeniedNotFound, Message: MsgTurnstileUnknown}
		s.broadcast(0, ev, nil, result, "")
		ObserveDecision(result.Decision, "unknown")
		return result
	}

	shift, err := s.Shifts.ResolveActiveShift(binding.Exam.ID, ev.Timestamp)
	if err != nil {
		logger.Error("shift resolution failed for exam %d: %v", binding.Exam.ID, err)
	}
	if shift == nil {
		result := &AccessResult{
			Decision:    DecisionDeniedNoWindow,
			Message:     MsgNoActiveWindow,
			TurnstileID: binding.Turnstile.ID,
		}
		s.broadcast(binding.Turnstile.ID, ev, binding, result, "")
		ObserveDecision(result.Decision, "unknown")
		return result
	}

	var result *AccessResult
	role := ""
	switch ev.UserType {
	case "staff", "supervisor":
		result, role = s.handleSupervisor(ev, binding, shift)
	default:
		result, role = s.handleStudent(ev, binding, shift)
	}
	result.TurnstileID = binding.Turnstile.ID
	s.broadcast(binding.Turnstile.ID, ev, binding, result, role)
	ObserveDecision(result.Decision, role)
	return result
}

// handleStudent resolves and evaluates the student/visitor path. Falls back
// to the supervisor path when the national ID exists in neither student
// table, since the devices report proctors with userType "normal" too.
func (s *AccessService) handleStudent(ev *DoorEvent, binding *TurnstileBinding, shift *ActiveShift) (*AccessResult, string) {
	student, err := s.Students.FindForEvent(binding.Exam.ID, ev.EmployeeNo, ev.Timestamp, shift.Number)
	if err != nil {
		logger.Error("student lookup failed for %s: %v", ev.EmployeeNo, err)
	}

	if student == nil {
		any, err := s.Students.FindAny(binding.Exam.ID, ev.EmployeeNo)
		if err != nil {
			logger.Error("student fallback lookup failed for %s: %v", ev.EmployeeNo, err)
		}
		if any != nil {
			// In the exam but not in the current shift: needs a human check
			s.writeStudentLog(ev, &any.ID, models.LogStatusDenied, true)
			return &AccessResult{Decision: DecisionDeniedNotFound, Message: MsgNotInShift}, "student"
		}

		// Not a student of this exam at all; try the staff directory
		if sup, _ := s.Supervisors.FindActiveByPinfl(ev.EmployeeNo); sup != nil {
			return s.evaluateSupervisor(ev, binding, shift, sup)
		}

		s.writeStudentLog(ev, nil, models.LogStatusDenied, true)
		return &AccessResult{Decision: DecisionDeniedNotFound, Message: MsgNotInTest}, "student"
	}

	// Eligibility precedence: blacklist > exclusion > zone
	blacklisted, err := s.Students.IsBlacklisted(student.Pinfl)
	if err != nil {
		logger.Error("blacklist lookup failed for %s: %v", student.Pinfl, err)
	}
	if blacklisted || student.IsBlacklist {
		s.writeStudentLog(ev, &student.ID, models.LogStatusDenied, false)
		return &AccessResult{Decision: DecisionDeniedPolicy, Message: MsgNotPermitted}, "student"
	}
	if student.IsCheating {
		s.writeStudentLog(ev, &student.ID, models.LogStatusDenied, false)
		return &AccessResult{Decision: DecisionDeniedPolicy, Message: MsgExcluded}, "student"
	}
	if student.ZoneID != binding.Turnstile.ZoneID {
		s.writeStudentLog(ev, &student.ID, models.LogStatusDenied, false)
		return &AccessResult{Decision: DecisionDeniedPolicy, Message: MsgWrongBuilding}, "student"
	}

	opened := s.openBarrier(&binding.Turnstile, ev.DoorNo)
	if !opened {
		s.writeStudentLog(ev, &student.ID, models.LogStatusNotOpen, false)
		return &AccessResult{Decision: DecisionDeniedHardware, Message: MsgDoorNotOpened}, "student"
	}

	if models.DirectionFromDoor(ev.DoorNo) == models.DirectionEntry {
		if err := s.Students.MarkEntered(student.ID); err != nil {
			logger.Error("mark entered failed for student %d: %v", student.ID, err)
		}
	}
	s.writeStudentLog(ev, &student.ID, models.LogStatusApproved, false)
	return &AccessResult{Decision: DecisionGranted, Message: MsgGranted}, "student"
}

// handleSupervisor resolves the staff/proctor path
func (s *AccessService) handleSupervisor(ev *DoorEvent, binding *TurnstileBinding, shift *ActiveShift) (*AccessResult, string) {
	sup, err := s.Supervisors.FindActiveByPinfl(ev.EmployeeNo)
	if err != nil {
		logger.Error("supervisor lookup failed for %s: %v", ev.EmployeeNo, err)
	}
	if sup == nil {
		s.writeSupervisorLog(ev, nil, "", models.LogStatusDenied, true)
		return &AccessResult{Decision: DecisionDeniedNotFound, Message: MsgPersonNotFound}, "supervisor"
	}
	return s.evaluateSupervisor(ev, binding, shift, sup)
}

// evaluateSupervisor applies the staff/proctor eligibility rules to a
// resolved person
func (s *AccessService) evaluateSupervisor(ev *DoorEvent, binding *TurnstileBinding, shift *ActiveShift, sup *models.Supervisor) (*AccessResult, string) {
	role := string(sup.Role)

	// Blacklist short-circuits every other rule
	blacklisted, err := s.Students.IsBlacklisted(sup.Pinfl)
	if err != nil {
		logger.Error("blacklist lookup failed for %s: %v", sup.Pinfl, err)
	}
	if blacklisted {
		s.writeSupervisorLog(ev, sup, sup.Role, models.LogStatusDenied, false)
		return &AccessResult{Decision: DecisionDeniedPolicy, Message: MsgNotPermitted}, role
	}

	if sup.Role == models.RoleSupervisor {
		// Proctors are bound to their region and to an assignment window
		if binding.Turnstile.Zone == nil || binding.Turnstile.Zone.RegionID != sup.RegionID {
			s.writeSupervisorLog(ev, sup, sup.Role, models.LogStatusDenied, false)
			return &AccessResult{Decision: DecisionDeniedPolicy, Message: MsgWrongZone}, role
		}

		assignment, err := s.Supervisors.AssignmentFor(sup.ID, binding.Exam.ID, ev.Timestamp, shift.Number)
		if err != nil {
			logger.Error("assignment lookup failed for supervisor %d: %v", sup.ID, err)
		}
		if assignment == nil {
			s.writeSupervisorLog(ev, sup, sup.Role, models.LogStatusDenied, false)
			return &AccessResult{Decision: DecisionDeniedPolicy, Message: MsgNotPermittedExam}, role
		}
		if !assignment.ContainsTime(s.Clock.Now()) {
			s.writeSupervisorLog(ev, sup, sup.Role, models.LogStatusDenied, false)
			return &AccessResult{Decision: DecisionDeniedNoWindow, Message: MsgNoActiveWindow}, role
		}
	}
	// RoleStaff passes every zone rule

	opened := s.openBarrier(&binding.Turnstile, ev.DoorNo)
	if !opened {
		s.writeSupervisorLog(ev, sup, sup.Role, models.LogStatusNotOpen, false)
		return &AccessResult{Decision: DecisionDeniedHardware, Message: MsgDoorNotOpened}, role
	}

	s.writeSupervisorLog(ev, sup, sup.Role, models.LogStatusApproved, false)
	return &AccessResult{Decision: DecisionGranted, Message: MsgGranted}, role
}

// openBarrier issues the physical open command. A failed open is final on
// the live path, never retried.
func (s *AccessService) openBarrier(t *models.Turnstile, doorNo int) bool {
	opened, err := s.Barrier.Open(t, doorNo)
	if err != nil {
		logger.Error("open door %d on %s failed: %v", doorNo, t.IPAddress, err)
		ObserveBarrierFailure(t.MACAddress)
		return false
	}
	if !opened {
		ObserveBarrierFailure(t.MACAddress)
	}
	return opened
}

func (s *AccessService) writeStudentLog(ev *DoorEvent, studentID *uint, status models.LogStatus, manual bool) {
	s.Logs.WriteStudentLog(&models.StudentLog{
		StudentID:            studentID,
		EmployeeNo:           ev.EmployeeNo,
		ImgFace:              ev.Picture,
		Door:                 ev.DoorNo,
		PassTime:             ev.Timestamp,
		IPAddress:            ev.IPAddress,
		MACAddress:           ev.MACAddress,
		Direction:            models.DirectionFromDoor(ev.DoorNo),
		Status:               status,
		RequiresVerification: manual,
	})
}

func (s *AccessService) writeSupervisorLog(ev *DoorEvent, sup *models.Supervisor, role models.SupervisorRole, status models.LogStatus, manual bool) {
	entry := &models.SupervisorLog{
		EmployeeNo:           ev.EmployeeNo,
		ImgFace:              ev.Picture,
		Door:                 ev.DoorNo,
		PassTime:             ev.Timestamp,
		IPAddress:            ev.IPAddress,
		MACAddress:           ev.MACAddress,
		Direction:            models.DirectionFromDoor(ev.DoorNo),
		Status:               status,
		Role:                 role,
		RequiresVerification: manual,
	}
	if sup != nil {
		entry.SupervisorID = &sup.ID
		entry.LastName = sup.LastName
		entry.FirstName = sup.FirstName
	}
	s.Logs.WriteSupervisorLog(entry)
}

// broadcast fans the decision out to the monitor channel of the turnstile.
// Failures never reach the device response.
func (s *AccessService) broadcast(turnstileID uint, ev *DoorEvent, binding *TurnstileBinding, result *AccessResult, role string) {
	payload := map[string]interface{}{
		"status":         string(result.Decision),
		"access_granted": result.Granted(),
		"turnstile_id":   turnstileID,
		"message":        result.Message,
		"employee_no":    maskPinfl(ev.EmployeeNo, result),
		"name":           ev.Name,
		"door":           ev.DoorNo,
		"direction":      string(models.DirectionFromDoor(ev.DoorNo)),
		"role":           role,
		"pass_time":      ev.Timestamp.Format("2006-01-02 15:04:05"),
		"img_face":       ev.Picture,
	}
	if binding != nil {
		payload["turnstile_name"] = binding.Turnstile.Name
		payload["exam_id"] = binding.Exam.ID
	}
	s.Monitor.Publish(turnstileID, payload)
}

// maskPinfl redacts the national ID on denied-visitor broadcasts
func maskPinfl(pinfl string, result *AccessResult) string {
	if result.Granted() || len(pinfl) <= 4 {
		return pinfl
	}
	if result.Decision == DecisionDeniedNotFound {
		return "**********" + pinfl[len(pinfl)-4:]
	}
	return pinfl
}
