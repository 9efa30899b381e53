package models

// StudentBlacklist holds national IDs banned from every venue, independent of
// any single exam
type StudentBlacklist struct {
	BaseModel
	Pinfl       string `gorm:"type:varchar(14);uniqueIndex;not null" json:"pinfl"`
	Description string `gorm:"type:varchar(255)" json:"description"`
}

// Reason is the catalogue of exclusion reasons
type Reason struct {
	BaseModel
	Name   string `gorm:"type:varchar(150);not null" json:"name"`
	Key    string `gorm:"type:varchar(50);unique;not null" json:"key"`
	Status bool   `gorm:"default:true" json:"status"`
}

// Cheating is the audit record of a student's exclusion from an exam.
// The engine reads Student.IsCheating; these rows explain why it was set.
type Cheating struct {
	BaseModel
	StudentID   uint   `gorm:"index;not null" json:"student_id"`
	ReasonID    uint   `gorm:"index;not null" json:"reason_id"`
	Pinfl       string `gorm:"type:varchar(14);index;not null" json:"pinfl"`
	Description string `gorm:"type:varchar(255)" json:"description"`

	// Relations
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Reason  *Reason  `gorm:"foreignKey:ReasonID" json:"reason,omitempty"`
}
