package models

import (
	"strings"
	"time"
)

// SupervisorRole distinguishes venue staff from exam proctors
type SupervisorRole string

const (
	RoleStaff      SupervisorRole = "staff"      // venue staff, zone rules do not apply
	RoleSupervisor SupervisorRole = "supervisor" // proctor, bound to region and assignment window
)

// Supervisor represents venue staff and exam proctors
type Supervisor struct {
	BaseModel
	LastName   string         `gorm:"type:varchar(100)" json:"last_name"`
	FirstName  string         `gorm:"type:varchar(100)" json:"first_name"`
	MiddleName string         `gorm:"type:varchar(100)" json:"middle_name"`
	Gender     string         `gorm:"type:varchar(10)" json:"gender"`
	PsSeries   string         `gorm:"type:varchar(4)" json:"ps_series"`
	PsNumber   string         `gorm:"type:varchar(10)" json:"ps_number"`
	Pinfl      string         `gorm:"type:varchar(14);uniqueIndex;not null" json:"pinfl"`
	RegionID   uint           `gorm:"index" json:"region_id"`
	Role       SupervisorRole `gorm:"type:varchar(20);default:'supervisor'" json:"role"`
	Status     bool           `gorm:"default:true" json:"status"`
	ImageB64   string         `gorm:"type:longtext" json:"-"`

	// Relations
	Region *Region `gorm:"foreignKey:RegionID" json:"region,omitempty"`
}

// FullName joins the name parts, skipping empty ones
func (s *Supervisor) FullName() string {
	parts := []string{}
	for _, p := range []string{s.LastName, s.FirstName, s.MiddleName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// EventSupervisor is a proctor's assignment to one exam shift
type EventSupervisor struct {
	BaseModel
	SupervisorID   uint      `gorm:"index;not null" json:"supervisor_id"`
	ExamID         uint      `gorm:"index;not null" json:"exam_id"`
	ZoneID         uint      `gorm:"index" json:"zone_id"`
	CategoryName   string    `gorm:"type:varchar(100)" json:"category_name"`
	TestDate       time.Time `gorm:"type:date;not null" json:"test_date"`
	Shift          int       `gorm:"not null" json:"shift"`
	GroupNumber    int       `json:"group_number"`
	IsParticipated bool      `gorm:"default:false" json:"is_participated"`
	AccessDatetime time.Time `json:"access_datetime"`
	ExpireDatetime time.Time `json:"expire_datetime"`

	// Relations
	Supervisor *Supervisor `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	Exam       *Exam       `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
}

// ContainsTime reports whether t falls inside the assignment window
func (e *EventSupervisor) ContainsTime(t time.Time) bool {
	return !t.Before(e.AccessDatetime) && !t.After(e.ExpireDatetime)
}

// SupervisorLog is the append-only audit record of a staff/proctor door event
type SupervisorLog struct {
	BaseModel
	SupervisorID         *uint          `gorm:"index" json:"supervisor_id,omitempty"`
	EmployeeNo           string         `gorm:"type:varchar(30);index" json:"employee_no"`
	LastName             string         `gorm:"type:varchar(100)" json:"last_name"`
	FirstName            string         `gorm:"type:varchar(100)" json:"first_name"`
	Role                 SupervisorRole `gorm:"type:varchar(20)" json:"role"`
	ImgFace              string         `gorm:"type:longtext" json:"-"`
	Door                 int            `json:"door"`
	PassTime             time.Time      `gorm:"index" json:"pass_time"`
	IPAddress            string         `gorm:"type:varchar(45)" json:"ip_address"`
	MACAddress           string         `gorm:"type:varchar(17);index" json:"mac_address"`
	Direction            Direction      `gorm:"type:varchar(10)" json:"direction"`
	Status               LogStatus      `gorm:"type:varchar(10)" json:"status"`
	RequiresVerification bool           `gorm:"default:false" json:"requires_verification"`

	// Relations
	Supervisor *Supervisor `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
}
