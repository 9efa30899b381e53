package models

import (
	"fmt"
	"time"
)

// Test is one entry of the exam type catalogue (national test, certification, ...)
type Test struct {
	BaseModel
	Name     string `gorm:"type:varchar(150);unique;not null" json:"name"`
	Code     string `gorm:"type:varchar(30);unique;not null" json:"code"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

// ExamState is the provisioning lifecycle state of an exam
type ExamState string

const (
	ExamStateNew        ExamState = "new"
	ExamStateDataLoaded ExamState = "data_loaded"
	ExamStateDataPushed ExamState = "data_pushed"
	ExamStateReady      ExamState = "ready"
	ExamStateFinished   ExamState = "finished"
)

// examStateOrder fixes the forward-only progression of exam states
var examStateOrder = map[ExamState]int{
	ExamStateNew:        0,
	ExamStateDataLoaded: 1,
	ExamStateDataPushed: 2,
	ExamStateReady:      3,
	ExamStateFinished:   4,
}

// Exam represents one bounded exam session
type Exam struct {
	BaseModel
	TestID     uint      `gorm:"index;not null" json:"test_id"`
	HashKey    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"hash_key"`
	StartDate  time.Time `gorm:"type:date;not null" json:"start_date"`
	FinishDate time.Time `gorm:"type:date;not null" json:"finish_date"`
	ShiftCount int       `gorm:"default:1" json:"shift_count"`
	TotalTaker int       `gorm:"default:0" json:"total_taker"`
	IsFinished bool      `gorm:"default:false" json:"is_finished"`
	State      ExamState `gorm:"type:varchar(20);default:'new'" json:"state"`

	// Relations
	Test       *Test       `gorm:"foreignKey:TestID" json:"test,omitempty"`
	ExamShifts []ExamShift `gorm:"foreignKey:ExamID" json:"exam_shifts,omitempty"`
}

// CanTransition reports whether the exam may move to next. Transitions are
// strictly forward, one step at a time.
func (e *Exam) CanTransition(next ExamState) bool {
	cur, ok := examStateOrder[e.State]
	if !ok {
		return false
	}
	n, ok := examStateOrder[next]
	if !ok {
		return false
	}
	return n == cur+1
}

// Transition advances the exam state or returns an error
func (e *Exam) Transition(next ExamState) error {
	if !e.CanTransition(next) {
		return fmt.Errorf("invalid exam state transition: %s -> %s", e.State, next)
	}
	e.State = next
	if next == ExamStateFinished {
		e.IsFinished = true
	}
	return nil
}

// Shift is a named time-of-day access window repeating across exam days
type Shift struct {
	BaseModel
	Name   string `gorm:"type:varchar(50);unique;not null" json:"name"`
	Number int    `gorm:"unique;not null" json:"number"`
	Status bool   `gorm:"default:true" json:"status"`
}

// ExamShift binds a shift window to an exam with concrete access times.
// AccessTime and ExpireTime are wall-clock "HH:MM:SS" strings.
type ExamShift struct {
	BaseModel
	ExamID     uint   `gorm:"index;not null" json:"exam_id"`
	ShiftID    uint   `gorm:"index;not null" json:"shift_id"`
	AccessTime string `gorm:"type:varchar(8);not null" json:"access_time"`
	ExpireTime string `gorm:"type:varchar(8);not null" json:"expire_time"`

	// Relations
	Exam  *Exam  `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
	Shift *Shift `gorm:"foreignKey:ShiftID" json:"shift,omitempty"`
}

// Contains reports whether the clock time t falls inside the window,
// bounds inclusive.
func (s *ExamShift) Contains(t time.Time) bool {
	clock := t.Format("15:04:05")
	return s.AccessTime <= clock && clock <= s.ExpireTime
}
