package models

import "time"

// LogStatus is the terminal outcome of one access attempt
type LogStatus string

const (
	LogStatusApproved LogStatus = "approved"
	LogStatusDenied   LogStatus = "denied"
	LogStatusNotOpen  LogStatus = "not_open" // granted but the barrier did not open
)

// StudentLog is the append-only audit record of a student door event.
// Rows are created exactly once per processed event and never mutated.
type StudentLog struct {
	BaseModel
	StudentID            *uint     `gorm:"index" json:"student_id,omitempty"` // nullable: person may be unresolved
	EmployeeNo           string    `gorm:"type:varchar(30);index" json:"employee_no"`
	ImgFace              string    `gorm:"type:longtext" json:"-"` // captured frame, data-URI base64
	Door                 int       `json:"door"`
	Accuracy             string    `gorm:"type:varchar(10)" json:"accuracy"`
	PassTime             time.Time `gorm:"index" json:"pass_time"`
	IPAddress            string    `gorm:"type:varchar(45)" json:"ip_address"`
	MACAddress           string    `gorm:"type:varchar(17);index" json:"mac_address"`
	IsHandChecked        bool      `gorm:"default:false" json:"is_hand_checked"`
	Direction            Direction `gorm:"type:varchar(10)" json:"direction"`
	Status               LogStatus `gorm:"type:varchar(10)" json:"status"`
	RequiresVerification bool      `gorm:"default:false" json:"requires_verification"`

	// Relations
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}
