package models

import (
	"strings"
	"time"
)

// Student represents one exam taker row of the roster
type Student struct {
	BaseModel
	ExamID      uint      `gorm:"index;not null" json:"exam_id"`
	ZoneID      uint      `gorm:"index;not null" json:"zone_id"`
	ExamDate    time.Time `gorm:"type:date;not null" json:"exam_date"`
	Shift       int       `gorm:"not null" json:"shift"`
	GroupNumber int       `json:"group_number"`
	LastName    string    `gorm:"type:varchar(100)" json:"last_name"`
	FirstName   string    `gorm:"type:varchar(100)" json:"first_name"`
	MiddleName  string    `gorm:"type:varchar(100)" json:"middle_name"`
	Pinfl       string    `gorm:"type:varchar(14);index;not null" json:"pinfl"` // 14-digit national ID
	Seat        int       `json:"seat"`
	IsReady     bool      `gorm:"default:false" json:"is_ready"`
	IsFace      bool      `gorm:"default:false" json:"is_face"`
	IsImage     bool      `gorm:"default:false" json:"is_image"`
	IsEntered   bool      `gorm:"default:false" json:"is_entered"`
	IsBlacklist bool      `gorm:"default:false" json:"is_blacklist"`
	IsCheating  bool      `gorm:"default:false" json:"is_cheating"`
	SCode       string    `gorm:"type:varchar(30);uniqueIndex" json:"s_code"`

	// Relations
	Exam   *Exam          `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
	Zone   *Zone          `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	PsData *StudentPsData `gorm:"foreignKey:StudentID" json:"ps_data,omitempty"`
}

// FullName joins the name parts, skipping empty ones
func (s *Student) FullName() string {
	parts := []string{}
	for _, p := range []string{s.LastName, s.FirstName, s.MiddleName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// StudentPsData keeps the passport details and face photo separate from the
// hot roster table
type StudentPsData struct {
	BaseModel
	StudentID uint   `gorm:"uniqueIndex;not null" json:"student_id"`
	PsSeries  string `gorm:"type:varchar(4)" json:"ps_series"`
	PsNumber  string `gorm:"type:varchar(10)" json:"ps_number"`
	Phone     string `gorm:"type:varchar(20)" json:"phone"`
	ImageB64  string `gorm:"type:longtext" json:"-"` // base64 face photo pushed to devices

	// Relations
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// TableName pins the table name, the pluralizer mangles "data"
func (StudentPsData) TableName() string {
	return "student_ps_data"
}
